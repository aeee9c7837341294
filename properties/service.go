package properties

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/imobiliaria-go/apperror"
)

const (
	msgImageInvalid    = "Imagem deve ser uma URL válida ou uma imagem em base64"
	msgNotFound        = "Imóvel não encontrado"
	msgSeedNoUpdate    = "Não é possível atualizar imóveis mockados"
	msgSeedNoDeletion  = "Não é possível deletar imóveis mockados"
	validationFallback = "invalid input"
)

var propertyTypes = map[PropertyType]struct{}{
	TypeApartamento: {}, TypeCasa: {}, TypeStudio: {}, TypeSobrado: {},
	TypePenthouse: {}, TypeTerreno: {}, TypeComercial: {},
}

// ValidType reports whether t is one of the seven listing types.
func ValidType(t PropertyType) bool {
	_, ok := propertyTypes[t]
	return ok
}

// validImageRef accepts an empty value, an http(s) URL or an inline data:image URI.
func validImageRef(s string) bool {
	return s == "" || strings.HasPrefix(s, "http") || strings.HasPrefix(s, "data:image")
}

// NewValidator returns a validator that knows the listing rules and reports
// fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("property_type", func(fl validator.FieldLevel) bool {
		return ValidType(PropertyType(fl.Field().String()))
	})
	_ = v.RegisterValidation("image_ref", func(fl validator.FieldLevel) bool {
		return validImageRef(fl.Field().String())
	})
	return v
}

// validationError turns validator output into a ValidationError with a readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidationError(validationFallback, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "image_ref":
			msgs = append(msgs, msgImageInvalid)
		case "property_type":
			msgs = append(msgs, fmt.Sprintf("%s: invalid listing type %q", fe.Field(), fe.Value()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s: must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s: must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return apperror.NewValidationError(strings.Join(msgs, "; "), err)
}

// trimImage maps a blank image to nil.
func trimImage(image *string) *string {
	if image == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*image)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// PropertyService implements the listing operations on top of a Repository.
type PropertyService struct {
	repo     Repository
	validate *validator.Validate
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(repo Repository) *PropertyService {
	return &PropertyService{repo: repo, validate: NewValidator()}
}

// Search returns the listings matching in, newest first.
func (s *PropertyService) Search(ctx context.Context, in SearchInput) ([]Property, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	rows, err := s.repo.Search(ctx, in.Filter())
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to search properties", err)
	}
	return rows, nil
}

// GetByID returns the listing or nil when no listing has that id.
func (s *PropertyService) GetByID(ctx context.Context, id int) (*Property, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			return nil, nil
		}
		return nil, apperror.NewDatabaseError("failed to get property", err)
	}
	return &p, nil
}

// ListByUser returns the listings created by userID.
func (s *PropertyService) ListByUser(ctx context.Context, userID int) ([]Property, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list properties", err)
	}
	return rows, nil
}

// Create validates in and stores a new listing owned by userID (0 for anonymous).
func (s *PropertyService) Create(ctx context.Context, in CreateInput, userID int) (Property, error) {
	if err := s.validate.Struct(in); err != nil {
		return Property{}, validationError(err)
	}
	p := Property{
		Title:        in.Title,
		Price:        in.Price,
		Neighborhood: in.Neighborhood,
		Address:      in.Address,
		Type:         in.Type,
		Bedrooms:     intOr(in.Bedrooms, 0),
		Bathrooms:    intOr(in.Bathrooms, 0),
		Garages:      intOr(in.Garages, 0),
		Area:         in.Area,
		Description:  in.Description,
		Image:        trimImage(in.Image),
		Available:    FlagOf(boolOr(in.Available, true)),
		Featured:     FlagOf(boolOr(in.Featured, false)),
		UserID:       userID,
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Property{}, apperror.NewDatabaseError("failed to create property", err)
	}
	return created, nil
}

// getMutable loads the listing with id and rejects built-in listings.
func (s *PropertyService) getMutable(ctx context.Context, id int, seedMsg string) (Property, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			return Property{}, apperror.NewNotFoundError(msgNotFound, err)
		}
		return Property{}, apperror.NewDatabaseError("failed to get property", err)
	}
	if IsSeedTitle(p.Title) {
		return Property{}, apperror.NewUnauthorizedError(seedMsg, nil)
	}
	return p, nil
}

// Update merges the non-nil fields of in into the stored listing.
func (s *PropertyService) Update(ctx context.Context, in UpdateInput) (Property, error) {
	if err := s.validate.Struct(in); err != nil {
		return Property{}, validationError(err)
	}
	p, err := s.getMutable(ctx, in.ID, msgSeedNoUpdate)
	if err != nil {
		return Property{}, err
	}

	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Neighborhood != nil {
		p.Neighborhood = in.Neighborhood
	}
	if in.Address != nil {
		p.Address = in.Address
	}
	if in.Type != nil {
		p.Type = *in.Type
	}
	if in.Bedrooms != nil {
		p.Bedrooms = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		p.Bathrooms = *in.Bathrooms
	}
	if in.Garages != nil {
		p.Garages = *in.Garages
	}
	if in.Area != nil {
		p.Area = *in.Area
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Image != nil {
		p.Image = trimImage(in.Image)
	}
	if in.Available != nil {
		p.Available = FlagOf(*in.Available)
	}
	if in.Featured != nil {
		p.Featured = FlagOf(*in.Featured)
	}

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			return Property{}, apperror.NewNotFoundError(msgNotFound, err)
		}
		return Property{}, apperror.NewDatabaseError("failed to update property", err)
	}
	return updated, nil
}

// Delete removes a listing. Built-in listings cannot be removed.
func (s *PropertyService) Delete(ctx context.Context, id int) error {
	if _, err := s.getMutable(ctx, id, msgSeedNoDeletion); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			return apperror.NewNotFoundError(msgNotFound, err)
		}
		return apperror.NewDatabaseError("failed to delete property", err)
	}
	return nil
}
