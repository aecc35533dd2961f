package dto

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ivd-portal/inscription-service/internal/domain"
	apperrors "github.com/ivd-portal/inscription-service/pkg/util/errorutil"
)

var (
	validGenders       = []interface{}{string(domain.GenderMale), string(domain.GenderFemale)}
	validGenderFilters = []interface{}{string(domain.GenderFilterMale), string(domain.GenderFilterFemale), string(domain.GenderFilterMixed)}
	validStatuses      = []interface{}{
		string(domain.EventStatusActive),
		string(domain.EventStatusCancelled),
		string(domain.EventStatusFinished),
		string(domain.EventStatusPending),
	}
	dateRule = validation.Date(domain.DateLayout).Error("must be a date in YYYY-MM-DD format")
)

// Validate runs v's rules and converts failures into a VALIDATION_FAILED
// error whose details map each field to its message.
func Validate(v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		flatten("", fieldErrs, details)
		return apperrors.NewValidationError("invalid payload", details)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

func flatten(prefix string, errs validation.Errors, into map[string]any) {
	for field, err := range errs {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(key, nested, into)
			continue
		}
		into[key] = err.Error()
	}
}

// ParseDate parses an optional YYYY-MM-DD value. Blank input returns nil.
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{"value": value, "layout": domain.DateLayout})
	}
	return &d, nil
}

func mustParseDate(value string) time.Time {
	d, _ := domain.ParseDate(strings.TrimSpace(value))
	return d
}

func formatDate(t time.Time) string {
	return domain.DateOf(t).Format(domain.DateLayout)
}
