// Package validation provides custom validation rules for the application.
package validation

import (
	"net/url"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	apperrors "github.com/allisson/kmi/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// WrapConfigurationError wraps validation errors as domain ErrInvalidConfiguration
func WrapConfigurationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidConfiguration, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// LookupKey validates the hex SHA-256 form used to address wrapped keys
var LookupKey = validation.NewStringRuleWithError(
	func(s string) bool {
		return cryptoDomain.ValidateLookupKey(s) == nil
	},
	validation.NewError("validation_lookup_key", "must be 64 lowercase hex characters"),
)

// HTTPURL validates an absolute http or https URL with a host
var HTTPURL = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.Parse(s)
		if err != nil {
			return false
		}
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	},
	validation.NewError("validation_http_url", "must be an absolute http or https url"),
)

// PositiveDuration validates that a time.Duration is greater than zero
var PositiveDuration = validation.By(func(value interface{}) error {
	d, ok := value.(time.Duration)
	if !ok {
		return validation.NewError("validation_duration_type", "must be a duration")
	}
	if d <= 0 {
		return validation.NewError("validation_positive_duration", "must be greater than zero")
	}
	return nil
})
