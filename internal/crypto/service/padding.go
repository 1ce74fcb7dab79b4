package service

import (
	"bytes"
	"crypto/subtle"

	cryptoDomain "github.com/allisson/kmi/internal/crypto/domain"
)

// AddPKCSPadding appends PKCS#7 padding to src. A block-aligned input gets a full
// block of padding so the pad length can always be read back from the last byte.
func AddPKCSPadding(src []byte, blockSize int) []byte {
	padding := blockSize - len(src)%blockSize
	out := make([]byte, len(src), len(src)+padding)
	copy(out, src)
	return append(out, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

// RemovePKCSPadding strips PKCS#7 padding from src, returning a subslice of src.
func RemovePKCSPadding(src []byte, blockSize int) ([]byte, error) {
	length := len(src)
	if length == 0 || length%blockSize != 0 {
		return nil, cryptoDomain.ErrPaddingInvalid
	}

	padding := int(src[length-1])
	if padding == 0 || padding > blockSize {
		return nil, cryptoDomain.ErrPaddingInvalid
	}

	// every pad byte must carry the pad length
	good := 1
	for _, b := range src[length-padding:] {
		good &= subtle.ConstantTimeByteEq(b, byte(padding))
	}
	if good != 1 {
		return nil, cryptoDomain.ErrPaddingInvalid
	}

	return src[:length-padding], nil
}
