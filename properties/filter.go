package properties

import (
	"sort"
	"strings"
)

func containsFold(haystack *string, needle string) bool {
	return haystack != nil && strings.Contains(strings.ToLower(*haystack), needle)
}

// Matches reports whether p satisfies every active predicate of f.
func (f Filter) Matches(p Property) bool {
	if f.Neighborhood != "" && !containsFold(p.Neighborhood, strings.ToLower(f.Neighborhood)) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.MinBedrooms != nil && p.Bedrooms < *f.MinBedrooms {
		return false
	}
	if f.MinBathrooms != nil && p.Bathrooms < *f.MinBathrooms {
		return false
	}
	if f.Available != nil && p.Available != FlagOf(*f.Available) {
		return false
	}
	if f.Featured != nil && p.Featured != FlagOf(*f.Featured) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		title := p.Title
		if !containsFold(&title, q) && !containsFold(p.Description, q) && !containsFold(p.Address, q) {
			return false
		}
	}
	return true
}

// sortNewestFirst orders by creation time descending, then id ascending.
func sortNewestFirst(rows []Property) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
}

// page applies the filter's offset and limit.
func (f Filter) page(rows []Property) []Property {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultStoreLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []Property{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
