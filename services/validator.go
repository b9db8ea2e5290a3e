package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/na4oman/samsung-shop/models"
)

// Field limits, counted in characters.
const (
	MaxNameLength        = 200
	MinNameLength        = 2
	MaxModelLength       = 100
	MaxColorLength       = 50
	MaxPartNumberLength  = 50
	MaxDescriptionLength = 1000
	MaxImageLength       = 500
	MaxPrice             = 999999.99
)

var partNumberPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateProduct checks every field rule of a candidate row and reports all
// failures. The same input always yields the same list in the same order.
func ValidateProduct(in models.ProductInput) models.ValidationResult {
	var errs []string

	if name, msg := requiredText(in, models.FieldName, "name"); msg != "" {
		errs = append(errs, msg)
	} else if utf8.RuneCountInString(name) > MaxNameLength {
		errs = append(errs, fmt.Sprintf("Product name must be %d characters or less", MaxNameLength))
	} else if utf8.RuneCountInString(name) < MinNameLength {
		errs = append(errs, fmt.Sprintf("Product name must be at least %d characters long", MinNameLength))
	}

	if model, msg := requiredText(in, models.FieldModel, "model"); msg != "" {
		errs = append(errs, msg)
	} else if utf8.RuneCountInString(model) > MaxModelLength {
		errs = append(errs, fmt.Sprintf("Product model must be %d characters or less", MaxModelLength))
	}

	if category, msg := requiredText(in, models.FieldCategory, "category"); msg != "" {
		errs = append(errs, msg)
	} else if !models.Category(category).IsValid() {
		errs = append(errs, "Product category must be one of: "+categoryList())
	}

	if color, msg := requiredText(in, models.FieldColor, "color"); msg != "" {
		errs = append(errs, msg)
	} else if utf8.RuneCountInString(color) > MaxColorLength {
		errs = append(errs, fmt.Sprintf("Product color must be %d characters or less", MaxColorLength))
	}

	if pn, msg := requiredText(in, models.FieldPartNumber, "part number"); msg != "" {
		errs = append(errs, msg)
	} else if utf8.RuneCountInString(pn) > MaxPartNumberLength {
		errs = append(errs, fmt.Sprintf("Product part number must be %d characters or less", MaxPartNumberLength))
	} else if !partNumberPattern.MatchString(pn) {
		errs = append(errs, "Product part number can only contain letters, numbers, hyphens, and underscores")
	}

	if msg := checkPrice(in[models.FieldPrice]); msg != "" {
		errs = append(errs, msg)
	}

	if v, ok := in[models.FieldDescription]; ok && v != nil {
		if s, isText := v.(string); !isText {
			errs = append(errs, "Product description must be a text value")
		} else if utf8.RuneCountInString(s) > MaxDescriptionLength {
			errs = append(errs, fmt.Sprintf("Product description must be %d characters or less", MaxDescriptionLength))
		}
	}

	if v, ok := in[models.FieldImage]; ok && v != nil {
		if s, isText := v.(string); !isText {
			errs = append(errs, "Product image must be a text value (URL)")
		} else if utf8.RuneCountInString(s) > MaxImageLength {
			errs = append(errs, fmt.Sprintf("Product image URL must be %d characters or less", MaxImageLength))
		}
	}

	return models.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// requiredText returns the field's string value, or the message for a missing,
// blank or non-text value.
func requiredText(in models.ProductInput, key, label string) (string, string) {
	v, ok := in[key]
	if !ok || v == nil {
		return "", fmt.Sprintf("Product %s is required and cannot be empty", label)
	}
	s, isText := v.(string)
	if !isText {
		return "", fmt.Sprintf("Product %s must be a text value", label)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Sprintf("Product %s is required and cannot be empty", label)
	}
	return s, ""
}

func checkPrice(v any) string {
	if v == nil {
		return "Product price is required"
	}
	price, ok := models.NumberValue(v)
	switch {
	case !ok:
		return "Product price must be a numeric value"
	case math.IsNaN(price):
		return "Product price must be a valid number"
	case math.IsInf(price, 0):
		return "Product price must be a finite number"
	case price <= 0:
		return "Product price must be greater than zero"
	case price > MaxPrice:
		return "Product price cannot exceed $999,999.99"
	}
	return ""
}

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
