// Package properties holds the listing records, their search filters and the
// repositories that persist them (JSON table or PostgreSQL), plus the service
// that enforces input validation and the read-only seed listings.
package properties

import "time"

// PropertyType is the kind of a listing.
type PropertyType string

const (
	TypeApartamento PropertyType = "Apartamento"
	TypeCasa        PropertyType = "Casa"
	TypeStudio      PropertyType = "Studio"
	TypeSobrado     PropertyType = "Sobrado"
	TypePenthouse   PropertyType = "Penthouse"
	TypeTerreno     PropertyType = "Terreno"
	TypeComercial   PropertyType = "Comercial"
)

// Flag is a boolean persisted as the string "true" or "false".
type Flag string

const (
	FlagTrue  Flag = "true"
	FlagFalse Flag = "false"
)

// FlagOf converts b to a Flag.
func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

// Bool reports whether f is FlagTrue.
func (f Flag) Bool() bool { return f == FlagTrue }

// Property is a listing.
type Property struct {
	ID           int          `json:"id"`
	Title        string       `json:"title"`
	Price        int          `json:"price"`
	Neighborhood *string      `json:"neighborhood"`
	Address      *string      `json:"address"`
	Type         PropertyType `json:"type"`
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    int          `json:"bathrooms"`
	Garages      int          `json:"garages"`
	Area         int          `json:"area"`
	Description  *string      `json:"description"`
	Image        *string      `json:"image"`
	Available    Flag         `json:"available"`
	Featured     Flag         `json:"featured"`
	UserID       int          `json:"userId"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Filter narrows a search. Nil pointers and empty strings disable a predicate.
type Filter struct {
	Neighborhood string
	MinPrice     *int
	MaxPrice     *int
	Type         PropertyType
	MinBedrooms  *int
	MinBathrooms *int
	Available    *bool
	Featured     *bool
	Search       string
	Limit        int
	Offset       int
}

// DefaultStoreLimit is applied by repositories when Filter.Limit is zero.
const DefaultStoreLimit = 50
