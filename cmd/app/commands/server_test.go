package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/allisson/kmi/internal/config"
)

// fakeListener blocks in Start until Shutdown, or fails immediately when startErr is set.
type fakeListener struct {
	startErr error
	stopped  chan struct{}
	shutdown atomic.Int32
}

func newFakeListener(startErr error) *fakeListener {
	return &fakeListener{startErr: startErr, stopped: make(chan struct{})}
}

func (f *fakeListener) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return nil
}

func (f *fakeListener) Shutdown(context.Context) error {
	if f.shutdown.Add(1) == 1 {
		close(f.stopped)
	}
	return nil
}

func TestServeUntilDone(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{ServerShutdownTimeout: time.Second}

	t.Run("context cancellation stops every listener", func(t *testing.T) {
		api, metrics := newFakeListener(nil), newFakeListener(nil)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- serveUntilDone(ctx, []namedRunnable{
				{name: "api server", runnable: api},
				{name: "metrics server", runnable: metrics},
			}, cfg, logger)
		}()
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("serveUntilDone did not return")
		}
		assert.EqualValues(t, 1, api.shutdown.Load())
		assert.EqualValues(t, 1, metrics.shutdown.Load())
	})

	t.Run("a failing listener stops the others", func(t *testing.T) {
		api, metrics := newFakeListener(nil), newFakeListener(errors.New("address already in use"))

		err := serveUntilDone(context.Background(), []namedRunnable{
			{name: "api server", runnable: api},
			{name: "metrics server", runnable: metrics},
		}, cfg, logger)

		assert.ErrorContains(t, err, "metrics server error: address already in use")
		assert.EqualValues(t, 1, api.shutdown.Load())
	})
}
