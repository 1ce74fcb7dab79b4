package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
	"github.com/allisson/kmi/internal/facility/usecase"
	"github.com/allisson/kmi/internal/facility/usecase/mocks"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	err error,
) {
	m.Called(ctx, domain, operation, duration, err)
}

func expectMetrics(m *mockBusinessMetrics, ctx context.Context, operation string, err error) {
	m.On("RecordOperation", ctx, "facility", operation, mock.AnythingOfType("time.Duration"), err).
		Return().
		Once()
}

func TestFacilityWithMetrics(t *testing.T) {
	ctx := context.Background()
	kek := []byte("kek")

	t.Run("Generate_Success", func(t *testing.T) {
		next := &mocks.MockMasterFacility{}
		m := &mockBusinessMetrics{}
		f := usecase.NewFacilityWithMetrics(next, m)

		next.On("Generate", ctx).Return(kek, nil).Once()
		expectMetrics(m, ctx, "generate", nil)

		got, err := f.Generate(ctx)
		assert.NoError(t, err)
		assert.Equal(t, kek, got)
		next.AssertExpectations(t)
		m.AssertExpectations(t)
	})

	t.Run("GetEncryptionKey_Error", func(t *testing.T) {
		next := &mocks.MockMasterFacility{}
		m := &mockBusinessMetrics{}
		f := usecase.NewFacilityWithMetrics(next, m)

		next.On("GetEncryptionKey", ctx, kek).Return(nil, facilityDomain.ErrKeyNotFound).Once()
		expectMetrics(m, ctx, "get_encryption_key", facilityDomain.ErrKeyNotFound)

		_, err := f.GetEncryptionKey(ctx, kek)
		assert.ErrorIs(t, err, facilityDomain.ErrKeyNotFound)
		m.AssertExpectations(t)
	})

	t.Run("Encrypt_Success", func(t *testing.T) {
		next := &mocks.MockMasterFacility{}
		m := &mockBusinessMetrics{}
		f := usecase.NewFacilityWithMetrics(next, m)

		next.On("Encrypt", ctx, kek, []byte("data")).Return([]byte("ciphertext"), nil).Once()
		expectMetrics(m, ctx, "encrypt", nil)

		out, err := f.Encrypt(ctx, kek, []byte("data"))
		assert.NoError(t, err)
		assert.Equal(t, []byte("ciphertext"), out)
		m.AssertExpectations(t)
	})

	t.Run("Decrypt_Error", func(t *testing.T) {
		next := &mocks.MockMasterFacility{}
		m := &mockBusinessMetrics{}
		f := usecase.NewFacilityWithMetrics(next, m)

		boom := errors.New("boom")
		next.On("Decrypt", ctx, kek, []byte("ciphertext")).Return(nil, boom).Once()
		expectMetrics(m, ctx, "decrypt", boom)

		_, err := f.Decrypt(ctx, kek, []byte("ciphertext"))
		assert.Error(t, err)
		m.AssertExpectations(t)
	})

	t.Run("Health_NotRecorded", func(t *testing.T) {
		next := &mocks.MockMasterFacility{}
		m := &mockBusinessMetrics{}
		f := usecase.NewFacilityWithMetrics(next, m)

		next.On("Health", ctx).Return(nil).Once()

		assert.NoError(t, f.Health(ctx))
		m.AssertNotCalled(t, "RecordOperation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMasterFacilityWithMetrics(t *testing.T) {
	ctx := context.Background()
	lookupKey := "lookup"

	t.Run("Keys_Success", func(t *testing.T) {
		next := &mocks.MockMasterFacility{}
		m := &mockBusinessMetrics{}
		f := usecase.NewMasterFacilityWithMetrics(next, m)

		next.On("Keys", ctx).Return([]string{lookupKey}, nil).Once()
		expectMetrics(m, ctx, "keys", nil)

		keys, err := f.Keys(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{lookupKey}, keys)
		m.AssertExpectations(t)
	})

	t.Run("Delete_Error", func(t *testing.T) {
		next := &mocks.MockMasterFacility{}
		m := &mockBusinessMetrics{}
		f := usecase.NewMasterFacilityWithMetrics(next, m)

		next.On("Delete", ctx, lookupKey).Return(facilityDomain.ErrKeyNotFound).Once()
		expectMetrics(m, ctx, "delete", facilityDomain.ErrKeyNotFound)

		assert.ErrorIs(t, f.Delete(ctx, lookupKey), facilityDomain.ErrKeyNotFound)
		m.AssertExpectations(t)
	})

	t.Run("Generate_Success", func(t *testing.T) {
		next := &mocks.MockMasterFacility{}
		m := &mockBusinessMetrics{}
		f := usecase.NewMasterFacilityWithMetrics(next, m)

		next.On("Generate", ctx).Return([]byte("kek"), nil).Once()
		expectMetrics(m, ctx, "generate", nil)

		_, err := f.Generate(ctx)
		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
}
