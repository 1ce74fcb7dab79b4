package domain

// Zero overwrites key material in place. Callers zero DEKs and KEKs as soon as they are done.
func Zero(b []byte) {
	clear(b)
}

// Clone returns a copy of b that the caller may zero without affecting the original.
// A nil input yields an empty, non-nil slice.
func Clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
