package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"
)

const (
	// DefaultPageLimit is used when the request carries no limit parameter.
	DefaultPageLimit = 100
	// MaxPageLimit caps the limit parameter.
	MaxPageLimit = 1000
)

// Pagination is the window requested through the offset and limit query parameters.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Validate checks the window bounds.
func (p Pagination) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Offset, validation.Min(0)),
		validation.Field(&p.Limit, validation.Required, validation.Min(1), validation.Max(MaxPageLimit)),
	)
}

// ParsePagination reads offset (default 0) and limit (default DefaultPageLimit) from
// the query string.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	p := Pagination{}
	if p.Offset, err = queryInt(c, "offset", 0); err != nil {
		return 0, 0, err
	}
	if p.Limit, err = queryInt(c, "limit", DefaultPageLimit); err != nil {
		return 0, 0, err
	}
	if err := p.Validate(); err != nil {
		return 0, 0, err
	}
	return p.Offset, p.Limit, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: must be an integer", name)
	}
	return v, nil
}

// Page returns the window of items selected by offset and limit. An offset past
// the end yields an empty, non-nil slice.
func Page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
