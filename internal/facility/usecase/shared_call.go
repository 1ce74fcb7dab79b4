package usecase

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
)

// defaultLookupTimeout bounds a shared lookup when the facility config leaves it unset.
const defaultLookupTimeout = 30 * time.Second

// sharedLookup runs fn once for every concurrent caller asking for key.
//
// fn runs under a context that keeps ctx's values but not its cancellation, bounded
// by timeout, so one caller going away does not fail the others. Each caller still
// returns ctx.Err() as soon as its own context is done. Callers get their own copy
// of the result.
func sharedLookup(
	ctx context.Context,
	group *singleflight.Group,
	key string,
	timeout time.Duration,
	fn func(ctx context.Context) ([]byte, error),
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return fn(lookupCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return cryptoDomain.Clone(res.Val.([]byte)), nil
	}
}

func lookupTimeout(configured time.Duration) time.Duration {
	if configured <= 0 {
		return defaultLookupTimeout
	}
	return configured
}
