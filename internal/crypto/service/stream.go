package service

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
)

// EncryptStream encrypts src into dst.
//
// Output layout: an 8-byte little-endian plaintext length, a 16-byte random IV,
// then the CBC ciphertext of src processed in ChunkSize pieces. Only the final
// chunk is padded, with spaces, so the original length must come from the header.
// The CBC chain runs across chunk boundaries.
func (s *BlockCipherService) EncryptStream(
	ctx context.Context,
	rawKey []byte,
	src io.Reader,
	dst io.Writer,
) error {
	size, err := StreamLength(src)
	if err != nil {
		return err
	}

	block, err := newBlock(rawKey)
	if err != nil {
		return err
	}

	header := make([]byte, cryptoDomain.StreamHeaderSize+cryptoDomain.BlockSize)
	binary.LittleEndian.PutUint64(header[:cryptoDomain.StreamHeaderSize], uint64(size))
	iv := header[cryptoDomain.StreamHeaderSize:]
	if _, err := rand.Read(iv); err != nil {
		return fmt.Errorf("failed to generate iv: %w", err)
	}
	if _, err := dst.Write(header); err != nil {
		return fmt.Errorf("failed to write stream header: %w", err)
	}

	mode := cipher.NewCBCEncrypter(block, iv)
	buf := make([]byte, cryptoDomain.ChunkSize)
	defer cryptoDomain.Zero(buf)

	limited := io.LimitReader(src, size)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(limited, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return fmt.Errorf("failed to read plaintext: %w", err)
		}
		if n == 0 {
			break
		}
		total += int64(n)

		chunk := buf[:n]
		if rem := n % cryptoDomain.BlockSize; rem != 0 {
			for i := 0; i < cryptoDomain.BlockSize-rem; i++ {
				chunk = append(chunk, ' ')
			}
		}
		mode.CryptBlocks(chunk, chunk)
		if _, err := dst.Write(chunk); err != nil {
			return fmt.Errorf("failed to write ciphertext: %w", err)
		}

		if n < cryptoDomain.ChunkSize {
			break
		}
	}

	if total != size {
		return fmt.Errorf("plaintext ended after %d of %d bytes: %w", total, size, io.ErrUnexpectedEOF)
	}
	return nil
}

// DecryptStream reverses EncryptStream, writing exactly the number of bytes
// recorded in the header. A short header or body returns ErrStreamCorrupted.
func (s *BlockCipherService) DecryptStream(
	ctx context.Context,
	rawKey []byte,
	src io.Reader,
	dst io.Writer,
) error {
	header := make([]byte, cryptoDomain.StreamHeaderSize+cryptoDomain.BlockSize)
	if _, err := io.ReadFull(src, header); err != nil {
		return cryptoDomain.ErrStreamCorrupted
	}
	remaining := binary.LittleEndian.Uint64(header[:cryptoDomain.StreamHeaderSize])
	iv := header[cryptoDomain.StreamHeaderSize:]

	block, err := newBlock(rawKey)
	if err != nil {
		return err
	}

	mode := cipher.NewCBCDecrypter(block, iv)
	buf := make([]byte, cryptoDomain.ChunkSize)
	defer cryptoDomain.Zero(buf)

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		want := uint64(cryptoDomain.ChunkSize)
		if remaining < want {
			// the final chunk was padded up to the block size
			want = (remaining + cryptoDomain.BlockSize - 1) / cryptoDomain.BlockSize * cryptoDomain.BlockSize
		}

		chunk := buf[:want]
		if _, err := io.ReadFull(src, chunk); err != nil {
			return cryptoDomain.ErrStreamCorrupted
		}
		mode.CryptBlocks(chunk, chunk)

		n := min(remaining, want)
		if _, err := dst.Write(chunk[:n]); err != nil {
			return fmt.Errorf("failed to write plaintext: %w", err)
		}
		remaining -= n
	}

	return nil
}

// StreamLength reports how many bytes remain in src without consuming them.
//
// Supported sources are values with a Len() int method (bytes.Reader,
// bytes.Buffer, strings.Reader), regular files, and any other io.Seeker.
// Pipes and sockets return ErrStreamLengthUnknown; callers should buffer them.
func StreamLength(src io.Reader) (int64, error) {
	if l, ok := src.(interface{ Len() int }); ok {
		return int64(l.Len()), nil
	}

	if f, ok := src.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return 0, fmt.Errorf("failed to stat source: %w", err)
		}
		if !info.Mode().IsRegular() {
			return 0, cryptoDomain.ErrStreamLengthUnknown
		}
	}

	seeker, ok := src.(io.Seeker)
	if !ok {
		return 0, cryptoDomain.ErrStreamLengthUnknown
	}

	current, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, cryptoDomain.ErrStreamLengthUnknown
	}
	end, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, cryptoDomain.ErrStreamLengthUnknown
	}
	if _, err := seeker.Seek(current, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind source: %w", err)
	}
	return end - current, nil
}
