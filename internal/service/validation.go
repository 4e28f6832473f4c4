package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"affiliate-catalog/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// FieldError describes one rejected field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned before any backend call when input is rejected
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})
	return v
}

type createInput struct {
	ProductName   string           `json:"product_name" validate:"required,min=3"`
	Category      string           `json:"category" validate:"required,min=2"`
	Price         decimal.Decimal  `json:"price" validate:"gte=0"`
	OriginalPrice *decimal.Decimal `json:"original_price" validate:"omitnil,gte=0"`
	Commission    *decimal.Decimal `json:"commission" validate:"omitnil,gte=0"`
	Sales         int              `json:"sales" validate:"gte=0"`
	Rating        *decimal.Decimal `json:"rating" validate:"omitnil,gte=0,lte=5"`
	AffiliateURL  string           `json:"affiliate_url" validate:"required,url"`
	ImageURL      string           `json:"image_url" validate:"required,url"`
	VideoURL      *string          `json:"video_url" validate:"omitnil,url"`
}

type patchInput struct {
	ProductName   *string          `json:"product_name" validate:"omitnil,min=3"`
	Category      *string          `json:"category" validate:"omitnil,min=2"`
	Price         *decimal.Decimal `json:"price" validate:"omitnil,gte=0"`
	OriginalPrice *decimal.Decimal `json:"original_price" validate:"omitnil,gte=0"`
	Commission    *decimal.Decimal `json:"commission" validate:"omitnil,gte=0"`
	Sales         *int             `json:"sales" validate:"omitnil,gte=0"`
	Rating        *decimal.Decimal `json:"rating" validate:"omitnil,gte=0,lte=5"`
	AffiliateURL  *string          `json:"affiliate_url" validate:"omitnil,url"`
	ImageURL      *string          `json:"image_url" validate:"omitnil,url"`
	VideoURL      *string          `json:"video_url" validate:"omitnil,url"`
	FeaturedOrd   *int             `json:"featured_order" validate:"omitnil,gte=0"`
}

// validateNewProduct checks a create request
func validateNewProduct(np *domain.NewProduct) error {
	in := createInput{
		ProductName:   strings.TrimSpace(np.ProductName),
		Category:      strings.TrimSpace(np.Category),
		Price:         np.Price,
		OriginalPrice: nullDecimalPtr(np.OriginalPrice),
		Commission:    nullDecimalPtr(np.Commission),
		Sales:         np.Sales,
		Rating:        nullDecimalPtr(np.Rating),
		AffiliateURL:  np.AffiliateURL,
		ImageURL:      np.ImageURL,
		VideoURL:      np.VideoURL,
	}
	verr := &ValidationError{}
	collect(verr, validate.Struct(in))
	return verr.orNil()
}

// validatePatch checks only the fields present in patch. Required fields
// cannot be cleared.
func validatePatch(p domain.ProductPatch) error {
	verr := &ValidationError{}

	required := []struct {
		name  string
		clear bool
	}{
		{"product_name", p.ProductName.Null},
		{"category", p.Category.Null},
		{"price", p.Price.Null},
		{"affiliate_url", p.AffiliateURL.Null},
		{"image_url", p.ImageURL.Null},
		{"sales", p.Sales.Null},
		{"is_featured", p.IsFeatured.Null},
	}
	for _, r := range required {
		if r.clear {
			verr.add(r.name, "This field cannot be cleared")
		}
	}

	in := patchInput{
		ProductName:   valuePtr(p.ProductName),
		Category:      valuePtr(p.Category),
		Price:         valuePtr(p.Price),
		OriginalPrice: valuePtr(p.OriginalPrice),
		Commission:    valuePtr(p.Commission),
		Sales:         valuePtr(p.Sales),
		Rating:        valuePtr(p.Rating),
		AffiliateURL:  valuePtr(p.AffiliateURL),
		ImageURL:      valuePtr(p.ImageURL),
		VideoURL:      valuePtr(p.VideoURL),
		FeaturedOrd:   valuePtr(p.FeaturedOrder),
	}
	if in.ProductName != nil {
		trimmed := strings.TrimSpace(*in.ProductName)
		in.ProductName = &trimmed
	}
	if in.Category != nil {
		trimmed := strings.TrimSpace(*in.Category)
		in.Category = &trimmed
	}
	collect(verr, validate.Struct(in))
	return verr.orNil()
}

func valuePtr[T any](o domain.Optional[T]) *T {
	if !o.HasValue() {
		return nil
	}
	v := o.Value
	return &v
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func collect(verr *ValidationError, err error) {
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("_", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "url":
		return "Must be a valid URL"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return "Value must be greater than or equal to " + fe.Param()
	case "lte":
		return "Value must be less than or equal to " + fe.Param()
	default:
		return "Invalid value"
	}
}
