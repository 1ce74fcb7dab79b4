package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New("master facility failed")

	assert.EqualError(t, err, "master facility failed")
	assert.Equal(t, "internal", Kind(err))
}

func TestWrap(t *testing.T) {
	t.Run("keeps the sentinel in the chain", func(t *testing.T) {
		err := Wrap(ErrNotFound, "wrapped key not found")

		assert.EqualError(t, err, "wrapped key not found: not found")
		assert.True(t, Is(err, ErrNotFound))
		assert.False(t, Is(err, ErrInvalidInput))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "ignored"))
	})

	t.Run("domain errors can be wrapped again", func(t *testing.T) {
		domainErr := Wrap(ErrInvalidInput, "invalid padding")
		err := Wrap(domainErr, "failed to unwrap data key")

		assert.True(t, Is(err, domainErr))
		assert.True(t, Is(err, ErrInvalidInput))
	})
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrUnavailable, "store %s unreachable after %d attempts", "redis", 3)

	assert.EqualError(t, err, "store redis unreachable after 3 attempts: unavailable")
	assert.True(t, Is(err, ErrUnavailable))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not found", err: Wrap(ErrNotFound, "wrapped key not found"), want: "not_found"},
		{name: "invalid input", err: Wrap(ErrInvalidInput, "kek must not be empty"), want: "invalid_input"},
		{name: "unavailable", err: Wrap(ErrUnavailable, "master facility unreachable"), want: "unavailable"},
		{name: "invalid configuration", err: ErrInvalidConfiguration, want: "invalid_configuration"},
		{name: "canceled", err: fmt.Errorf("get: %w", context.Canceled), want: "canceled"},
		{name: "deadline", err: context.DeadlineExceeded, want: "canceled"},
		{name: "plain error", err: errors.New("boom"), want: "internal"},
		{
			name: "cancellation wins over the transport sentinel",
			err:  Wrap(fmt.Errorf("%w: %w", ErrUnavailable, context.Canceled), "key request"),
			want: "canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrInvalidInput, ErrUnavailable, ErrInvalidConfiguration}

	for i, a := range sentinels {
		for j, b := range sentinels {
			assert.Equal(t, i == j, Is(a, b), "%v vs %v", a, b)
		}
	}
}
