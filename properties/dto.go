package properties

// SearchInput is the payload of properties.search.
type SearchInput struct {
	Neighborhood *string       `json:"neighborhood,omitempty"`
	MinPrice     *int          `json:"minPrice,omitempty"`
	MaxPrice     *int          `json:"maxPrice,omitempty"`
	Type         *PropertyType `json:"type,omitempty" validate:"omitempty,property_type"`
	MinBedrooms  *int          `json:"minBedrooms,omitempty"`
	MinBathrooms *int          `json:"minBathrooms,omitempty"`
	Available    *bool         `json:"available,omitempty"`
	Featured     *bool         `json:"featured,omitempty"`
	Search       *string       `json:"search,omitempty"`
	Limit        *int          `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Offset       *int          `json:"offset,omitempty" validate:"omitempty,min=0"`
}

// DefaultSearchLimit is the page size when the caller sends none.
const DefaultSearchLimit = 20

// Filter converts the input into a repository filter, applying defaults.
func (in SearchInput) Filter() Filter {
	f := Filter{
		MinPrice:     in.MinPrice,
		MaxPrice:     in.MaxPrice,
		MinBedrooms:  in.MinBedrooms,
		MinBathrooms: in.MinBathrooms,
		Available:    in.Available,
		Featured:     in.Featured,
		Limit:        DefaultSearchLimit,
	}
	if in.Neighborhood != nil {
		f.Neighborhood = *in.Neighborhood
	}
	if in.Type != nil {
		f.Type = *in.Type
	}
	if in.Search != nil {
		f.Search = *in.Search
	}
	if in.Limit != nil {
		f.Limit = *in.Limit
	}
	if in.Offset != nil {
		f.Offset = *in.Offset
	}
	return f
}

// IDInput is the payload of properties.getById and properties.delete.
type IDInput struct {
	ID int `json:"id"`
}

// CreateInput is the payload of properties.create.
type CreateInput struct {
	Title        string       `json:"title" validate:"min=1,max=255"`
	Price        int          `json:"price" validate:"min=0"`
	Neighborhood *string      `json:"neighborhood,omitempty"`
	Address      *string      `json:"address,omitempty"`
	Type         PropertyType `json:"type" validate:"property_type"`
	Bedrooms     *int         `json:"bedrooms,omitempty" validate:"omitempty,min=0"`
	Bathrooms    *int         `json:"bathrooms,omitempty" validate:"omitempty,min=0"`
	Garages      *int         `json:"garages,omitempty" validate:"omitempty,min=0"`
	Area         int          `json:"area" validate:"min=1"`
	Description  *string      `json:"description,omitempty"`
	Image        *string      `json:"image,omitempty" validate:"omitempty,image_ref"`
	Available    *bool        `json:"available,omitempty"`
	Featured     *bool        `json:"featured,omitempty"`
}

// UpdateInput is the payload of properties.update. Only non-nil fields change.
type UpdateInput struct {
	ID           int           `json:"id"`
	Title        *string       `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Price        *int          `json:"price,omitempty" validate:"omitempty,min=0"`
	Neighborhood *string       `json:"neighborhood,omitempty"`
	Address      *string       `json:"address,omitempty"`
	Type         *PropertyType `json:"type,omitempty" validate:"omitempty,property_type"`
	Bedrooms     *int          `json:"bedrooms,omitempty" validate:"omitempty,min=0"`
	Bathrooms    *int          `json:"bathrooms,omitempty" validate:"omitempty,min=0"`
	Garages      *int          `json:"garages,omitempty" validate:"omitempty,min=0"`
	Area         *int          `json:"area,omitempty" validate:"omitempty,min=1"`
	Description  *string       `json:"description,omitempty"`
	Image        *string       `json:"image,omitempty" validate:"omitempty,image_ref"`
	Available    *bool         `json:"available,omitempty"`
	Featured     *bool         `json:"featured,omitempty"`
}

// DeleteResult is returned by a successful delete.
type DeleteResult struct {
	Success bool `json:"success"`
}
