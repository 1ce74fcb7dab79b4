package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/kmi/internal/errors"
)

func TestRules(t *testing.T) {
	digest := sha256.Sum256([]byte("kek"))
	lookupKey := hex.EncodeToString(digest[:])

	tests := []struct {
		name    string
		rule    validation.Rule
		value   any
		wantErr string
	}{
		{name: "not blank accepts text", rule: NotBlank, value: "/var/lib/kmi"},
		{name: "not blank skips empty", rule: NotBlank, value: ""},
		{name: "not blank rejects spaces", rule: NotBlank, value: " \t ", wantErr: "must not be blank"},

		{name: "lookup key accepts digest", rule: LookupKey, value: lookupKey},
		{
			name:    "lookup key rejects uppercase",
			rule:    LookupKey,
			value:   strings.ToUpper(lookupKey),
			wantErr: "must be 64 lowercase hex characters",
		},
		{
			name:    "lookup key rejects short digest",
			rule:    LookupKey,
			value:   lookupKey[:63],
			wantErr: "must be 64 lowercase hex characters",
		},
		{
			name:    "lookup key rejects path traversal",
			rule:    LookupKey,
			value:   "../../../../etc/passwd",
			wantErr: "must be 64 lowercase hex characters",
		},

		{name: "http url", rule: HTTPURL, value: "http://master:8080"},
		{name: "https url with path", rule: HTTPURL, value: "https://kmi.example.com/base"},
		{name: "url without scheme", rule: HTTPURL, value: "master:8080", wantErr: "absolute http or https url"},
		{name: "url with other scheme", rule: HTTPURL, value: "ftp://master", wantErr: "absolute http or https url"},
		{name: "url without host", rule: HTTPURL, value: "http://", wantErr: "absolute http or https url"},

		{name: "positive duration", rule: PositiveDuration, value: 5 * time.Minute},
		{name: "zero duration", rule: PositiveDuration, value: time.Duration(0), wantErr: "greater than zero"},
		{name: "negative duration", rule: PositiveDuration, value: -time.Second, wantErr: "greater than zero"},
		{name: "duration of wrong type", rule: PositiveDuration, value: "5m", wantErr: "must be a duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate(tt.value)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWrapErrors(t *testing.T) {
	cause := errors.New("limit: must be no greater than 1000")

	tests := []struct {
		name     string
		wrap     func(error) error
		sentinel error
	}{
		{name: "validation", wrap: WrapValidationError, sentinel: apperrors.ErrInvalidInput},
		{name: "configuration", wrap: WrapConfigurationError, sentinel: apperrors.ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.wrap(nil))

			err := tt.wrap(cause)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.ErrorContains(t, err, cause.Error())
		})
	}
}
