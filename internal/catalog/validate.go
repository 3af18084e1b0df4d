package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/m3rciful/kinobot/internal/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks e and returns an apperr validation error describing the
// first failing field.
func (e NewEntry) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return apperr.Validation("catalog.validate", "title is required")
	}
	if _, ok := ParseKind(string(e.Kind)); !ok {
		return apperr.Validation("catalog.validate", fmt.Sprintf("unknown kind %q", e.Kind))
	}
	err := getValidator().Struct(e)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Wrap(apperr.KindValidation, "catalog.validate", "invalid entry", err)
	}
	return apperr.Validation("catalog.validate", translate(fieldErrs[0]))
}

func translate(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min", "max":
		switch fe.Field() {
		case "Rating":
			return fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating)
		case "Year":
			return "year must be between 1888 and 2100"
		case "Duration":
			return "duration must be between 1 and 1000 minutes"
		}
		return fmt.Sprintf("%s is out of range (%s %s)", field, fe.Tag(), fe.Param())
	case "url":
		return field + " must be a URL"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
