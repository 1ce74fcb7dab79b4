package usecase_test

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/kmi/internal/cache"
	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
	cryptoService "github.com/allisson/kmi/internal/crypto/service"
	"github.com/allisson/kmi/internal/errors"
	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
	"github.com/allisson/kmi/internal/facility/usecase"
	"github.com/allisson/kmi/internal/facility/usecase/mocks"
)

func newLocalFacility(t *testing.T, client *mocks.MockProtocolClient, clock *cache.ManualClock) usecase.Facility {
	t.Helper()

	blockCipher, err := cryptoService.NewBlockCipher(cryptoDomain.CipherModeRandomIV)
	require.NoError(t, err)

	facility, err := usecase.NewLocalFacility(client, blockCipher, usecase.LocalConfig{
		CacheTTL:  testCacheTTL,
		CacheSize: 16,
		Clock:     clock.Now,
	})
	require.NoError(t, err)
	return facility
}

func testDEK() []byte {
	return bytes.Repeat([]byte{0x42}, cryptoDomain.KeySize)
}

func TestLocalFacility_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client := &mocks.MockProtocolClient{}
		facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

		client.On("Create", ctx).Return([]byte("kek"), nil).Once()

		kek, err := facility.Generate(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("kek"), kek)
		client.AssertExpectations(t)
	})

	t.Run("Error_Transport", func(t *testing.T) {
		client := &mocks.MockProtocolClient{}
		facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

		client.On("Create", ctx).Return(nil, facilityDomain.ErrTransport).Once()

		_, err := facility.Generate(ctx)
		assert.ErrorIs(t, err, facilityDomain.ErrTransport)
		assert.ErrorIs(t, err, errors.ErrUnavailable)
	})
}

func TestLocalFacility_GetEncryptionKey(t *testing.T) {
	ctx := context.Background()
	kek := []byte("kek")

	t.Run("Success_CachesFetchedKey", func(t *testing.T) {
		client := &mocks.MockProtocolClient{}
		facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

		client.On("Fetch", mock.Anything, kek).Return(testDEK(), nil).Once()

		for range 3 {
			dek, err := facility.GetEncryptionKey(ctx, kek)
			require.NoError(t, err)
			assert.Equal(t, testDEK(), dek)
		}
		client.AssertNumberOfCalls(t, "Fetch", 1)
		assert.Equal(t, 1, facility.(usecase.CacheSizer).CacheLen())
	})

	t.Run("Success_RefetchesAfterExpiry", func(t *testing.T) {
		client := &mocks.MockProtocolClient{}
		clock := cache.NewManualClock(time.Now())
		facility := newLocalFacility(t, client, clock)

		client.On("Fetch", mock.Anything, kek).Return(testDEK(), nil).Twice()

		_, err := facility.GetEncryptionKey(ctx, kek)
		require.NoError(t, err)
		clock.Advance(testCacheTTL)
		_, err = facility.GetEncryptionKey(ctx, kek)
		require.NoError(t, err)

		client.AssertNumberOfCalls(t, "Fetch", 2)
	})

	t.Run("Success_InvalidateCache", func(t *testing.T) {
		client := &mocks.MockProtocolClient{}
		facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

		client.On("Fetch", mock.Anything, kek).Return(testDEK(), nil).Twice()

		_, err := facility.GetEncryptionKey(ctx, kek)
		require.NoError(t, err)
		facility.InvalidateCache(kek)
		_, err = facility.GetEncryptionKey(ctx, kek)
		require.NoError(t, err)

		client.AssertNumberOfCalls(t, "Fetch", 2)
	})

	t.Run("Error_NotFoundIsNotCached", func(t *testing.T) {
		client := &mocks.MockProtocolClient{}
		facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

		client.On("Fetch", mock.Anything, kek).Return(nil, facilityDomain.ErrKeyNotFound).Twice()

		_, err := facility.GetEncryptionKey(ctx, kek)
		assert.ErrorIs(t, err, facilityDomain.ErrKeyNotFound)
		_, err = facility.GetEncryptionKey(ctx, kek)
		assert.ErrorIs(t, err, errors.ErrNotFound)

		client.AssertNumberOfCalls(t, "Fetch", 2)
	})

	t.Run("Error_RemoteFailure", func(t *testing.T) {
		client := &mocks.MockProtocolClient{}
		facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

		client.On("Fetch", mock.Anything, kek).Return(nil, facilityDomain.ErrRemoteFailure).Once()

		_, err := facility.GetEncryptionKey(ctx, kek)
		assert.ErrorIs(t, err, facilityDomain.ErrRemoteFailure)
	})

	t.Run("Error_ShortKey", func(t *testing.T) {
		client := &mocks.MockProtocolClient{}
		facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

		client.On("Fetch", mock.Anything, kek).Return([]byte("short"), nil).Once()

		_, err := facility.GetEncryptionKey(ctx, kek)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("Error_EmptyKEK", func(t *testing.T) {
		client := &mocks.MockProtocolClient{}
		facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

		_, err := facility.GetEncryptionKey(ctx, []byte{})
		assert.ErrorIs(t, err, facilityDomain.ErrKeyNotFound)
		client.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	})
}

// blockingClient holds every Fetch until release is closed.
type blockingClient struct {
	usecase.ProtocolClient
	started chan struct{}
	release chan struct{}
	fetches atomic.Int32
	// fetchCtxErr is the state of the fetch context once released.
	fetchCtxErr atomic.Value
}

func newBlockingClient() *blockingClient {
	return &blockingClient{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *blockingClient) Fetch(ctx context.Context, kek []byte) ([]byte, error) {
	b.fetches.Add(1)
	b.started <- struct{}{}
	<-b.release
	if err := ctx.Err(); err != nil {
		b.fetchCtxErr.Store(err)
		return nil, err
	}
	return testDEK(), nil
}

func TestLocalFacility_GetEncryptionKey_CallerCancellation(t *testing.T) {
	kek := []byte("kek")
	client := newBlockingClient()

	blockCipher, err := cryptoService.NewBlockCipher(cryptoDomain.CipherModeRandomIV)
	require.NoError(t, err)
	facility, err := usecase.NewLocalFacility(client, blockCipher, usecase.LocalConfig{
		CacheTTL:  testCacheTTL,
		CacheSize: 16,
	})
	require.NoError(t, err)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := facility.GetEncryptionKey(firstCtx, kek)
		firstDone <- err
	}()
	<-client.started

	type result struct {
		dek []byte
		err error
	}
	secondDone := make(chan result, 1)
	go func() {
		dek, err := facility.GetEncryptionKey(context.Background(), kek)
		secondDone <- result{dek: dek, err: err}
	}()
	// Let the second caller join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstDone, context.Canceled)

	close(client.release)
	second := <-secondDone
	require.NoError(t, second.err)
	assert.Equal(t, testDEK(), second.dek)

	assert.Nil(t, client.fetchCtxErr.Load(), "shared fetch must outlive the caller that started it")
	assert.Equal(t, int32(1), client.fetches.Load())
	assert.Equal(t, 1, facility.(usecase.CacheSizer).CacheLen())
}

func TestLocalFacility_GetEncryptionKey_CanceledBeforeCall(t *testing.T) {
	client := &mocks.MockProtocolClient{}
	facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := facility.GetEncryptionKey(ctx, []byte("kek"))
	assert.ErrorIs(t, err, context.Canceled)
	client.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestLocalFacility_EncryptDecrypt(t *testing.T) {
	ctx := context.Background()
	kek := []byte("kek")

	client := &mocks.MockProtocolClient{}
	facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))
	client.On("Fetch", mock.Anything, kek).Return(testDEK(), nil).Once()

	data := []byte("hello world")
	ciphertext, err := facility.Encrypt(ctx, kek, data)
	require.NoError(t, err)
	assert.Zero(t, len(ciphertext)%cryptoDomain.BlockSize)
	assert.Greater(t, len(ciphertext), len(data))

	plaintext, err := facility.Decrypt(ctx, kek, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, data, plaintext)

	var encrypted, decrypted bytes.Buffer
	require.NoError(t, facility.EncryptStream(ctx, kek, bytes.NewReader(data), &encrypted))
	require.NoError(t, facility.DecryptStream(ctx, kek, bytes.NewReader(encrypted.Bytes()), &decrypted))
	assert.Equal(t, data, decrypted.Bytes())

	client.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestLocalFacility_Health(t *testing.T) {
	ctx := context.Background()
	client := &mocks.MockProtocolClient{}
	facility := newLocalFacility(t, client, cache.NewManualClock(time.Now()))

	client.On("Ping", ctx).Return(facilityDomain.ErrTransport).Once()

	assert.ErrorIs(t, facility.Health(ctx), facilityDomain.ErrTransport)
}
