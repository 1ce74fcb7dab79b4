// Package dto provides data transfer objects for the admin API.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/kmi/internal/validation"
)

// LookupKeyParam is the lookup key taken from the request path.
type LookupKeyParam struct {
	LookupKey string
}

// Validate checks the lookup key is well formed.
func (p *LookupKeyParam) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.LookupKey,
			validation.Required,
			customValidation.LookupKey,
		),
	)
}

// ListKeysResponse is returned by GET /v1/keys.
type ListKeysResponse struct {
	LookupKeys []string `json:"lookup_keys"`
	Offset     int      `json:"offset"`
	Limit      int      `json:"limit"`
	Total      int      `json:"total"`
}

// KeyResponse is returned by GET /v1/keys/:lookup_key.
type KeyResponse struct {
	LookupKey string `json:"lookup_key"`
	Exists    bool   `json:"exists"`
}
