package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
)

func TestBlockCipherService_Stream(t *testing.T) {
	ctx := context.Background()
	c := newCipher(t, cryptoDomain.CipherModeRandomIV)
	key := randomKey(t, cryptoDomain.KeySize)

	sizes := []int{
		0,
		1,
		cryptoDomain.BlockSize,
		cryptoDomain.ChunkSize - 1,
		cryptoDomain.ChunkSize,
		cryptoDomain.ChunkSize + 1,
		3*cryptoDomain.ChunkSize + 7,
	}

	for _, size := range sizes {
		plaintext := randomKey(t, size)

		var encrypted bytes.Buffer
		require.NoError(t, c.EncryptStream(ctx, key, bytes.NewReader(plaintext), &encrypted))

		header := encrypted.Bytes()[:cryptoDomain.StreamHeaderSize]
		assert.Equal(t, uint64(size), binary.LittleEndian.Uint64(header), "size %d", size)

		body := encrypted.Len() - cryptoDomain.StreamHeaderSize - cryptoDomain.BlockSize
		assert.Zero(t, body%cryptoDomain.BlockSize, "size %d", size)

		var decrypted bytes.Buffer
		require.NoError(t, c.DecryptStream(ctx, key, &encrypted, &decrypted))
		assert.Equal(t, plaintext, decrypted.Bytes(), "size %d", size)
	}
}

func TestBlockCipherService_StreamRandomIV(t *testing.T) {
	ctx := context.Background()
	c := newCipher(t, cryptoDomain.CipherModeLegacy)
	key := randomKey(t, cryptoDomain.KeySize)

	var out1, out2 bytes.Buffer
	require.NoError(t, c.EncryptStream(ctx, key, strings.NewReader("same payload"), &out1))
	require.NoError(t, c.EncryptStream(ctx, key, strings.NewReader("same payload"), &out2))

	assert.NotEqual(t, out1.Bytes(), out2.Bytes())
}

func TestBlockCipherService_StreamFile(t *testing.T) {
	ctx := context.Background()
	c := newCipher(t, cryptoDomain.CipherModeRandomIV)
	key := randomKey(t, cryptoDomain.KeySize)
	dir := t.TempDir()

	plaintext := randomKey(t, 2*cryptoDomain.ChunkSize+100)
	inPath := filepath.Join(dir, "plain.bin")
	require.NoError(t, os.WriteFile(inPath, plaintext, 0o600))

	in, err := os.Open(inPath)
	require.NoError(t, err)
	defer func() { _ = in.Close() }()

	encPath := filepath.Join(dir, "plain.bin.enc")
	enc, err := os.Create(encPath)
	require.NoError(t, err)
	require.NoError(t, c.EncryptStream(ctx, key, in, enc))
	require.NoError(t, enc.Close())

	encIn, err := os.Open(encPath)
	require.NoError(t, err)
	defer func() { _ = encIn.Close() }()

	var decrypted bytes.Buffer
	require.NoError(t, c.DecryptStream(ctx, key, encIn, &decrypted))
	assert.Equal(t, plaintext, decrypted.Bytes())
}

func TestBlockCipherService_StreamErrors(t *testing.T) {
	ctx := context.Background()
	c := newCipher(t, cryptoDomain.CipherModeRandomIV)
	key := randomKey(t, cryptoDomain.KeySize)

	t.Run("unknown length source", func(t *testing.T) {
		src := io.MultiReader(strings.NewReader("data"))
		err := c.EncryptStream(ctx, key, src, io.Discard)
		assert.ErrorIs(t, err, cryptoDomain.ErrStreamLengthUnknown)
	})

	t.Run("truncated header", func(t *testing.T) {
		err := c.DecryptStream(ctx, key, bytes.NewReader([]byte{1, 2, 3}), io.Discard)
		assert.ErrorIs(t, err, cryptoDomain.ErrStreamCorrupted)
	})

	t.Run("truncated body", func(t *testing.T) {
		var encrypted bytes.Buffer
		require.NoError(t, c.EncryptStream(ctx, key, bytes.NewReader(randomKey(t, 100)), &encrypted))
		truncated := encrypted.Bytes()[:encrypted.Len()-cryptoDomain.BlockSize]

		err := c.DecryptStream(ctx, key, bytes.NewReader(truncated), io.Discard)
		assert.ErrorIs(t, err, cryptoDomain.ErrStreamCorrupted)
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		err := c.EncryptStream(canceled, key, bytes.NewReader(randomKey(t, 10)), io.Discard)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type lenReader struct {
	io.Reader
	n int
}

func (r lenReader) Len() int { return r.n }

func TestStreamLength(t *testing.T) {
	t.Run("bytes reader", func(t *testing.T) {
		n, err := StreamLength(bytes.NewReader(make([]byte, 42)))
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
	})

	t.Run("partially consumed seeker", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "f")
		require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o600))
		f, err := os.Open(path)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()

		_, err = f.Seek(30, io.SeekStart)
		require.NoError(t, err)

		n, err := StreamLength(f)
		require.NoError(t, err)
		assert.Equal(t, int64(70), n)

		pos, err := f.Seek(0, io.SeekCurrent)
		require.NoError(t, err)
		assert.Equal(t, int64(30), pos)
	})

	t.Run("custom Len", func(t *testing.T) {
		n, err := StreamLength(lenReader{Reader: strings.NewReader("abc"), n: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("pipe", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		defer func() {
			_ = r.Close()
			_ = w.Close()
		}()

		_, err = StreamLength(r)
		assert.ErrorIs(t, err, cryptoDomain.ErrStreamLengthUnknown)
	})
}
