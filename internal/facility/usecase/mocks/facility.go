package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockMasterFacility is a mock implementation of MasterFacility (and therefore Facility).
type MockMasterFacility struct {
	mock.Mock
}

// Generate mocks the Generate method.
func (m *MockMasterFacility) Generate(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// GetEncryptionKey mocks the GetEncryptionKey method.
func (m *MockMasterFacility) GetEncryptionKey(ctx context.Context, kek []byte) ([]byte, error) {
	args := m.Called(ctx, kek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Encrypt mocks the Encrypt method.
func (m *MockMasterFacility) Encrypt(ctx context.Context, kek, data []byte) ([]byte, error) {
	args := m.Called(ctx, kek, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Decrypt mocks the Decrypt method.
func (m *MockMasterFacility) Decrypt(ctx context.Context, kek, data []byte) ([]byte, error) {
	args := m.Called(ctx, kek, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// EncryptStream mocks the EncryptStream method.
func (m *MockMasterFacility) EncryptStream(ctx context.Context, kek []byte, src io.Reader, dst io.Writer) error {
	args := m.Called(ctx, kek, src, dst)
	return args.Error(0)
}

// DecryptStream mocks the DecryptStream method.
func (m *MockMasterFacility) DecryptStream(ctx context.Context, kek []byte, src io.Reader, dst io.Writer) error {
	args := m.Called(ctx, kek, src, dst)
	return args.Error(0)
}

// Health mocks the Health method.
func (m *MockMasterFacility) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Keys mocks the Keys method.
func (m *MockMasterFacility) Keys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Contains mocks the Contains method.
func (m *MockMasterFacility) Contains(ctx context.Context, lookupKey string) (bool, error) {
	args := m.Called(ctx, lookupKey)
	return args.Bool(0), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockMasterFacility) Delete(ctx context.Context, lookupKey string) error {
	args := m.Called(ctx, lookupKey)
	return args.Error(0)
}

// InvalidateCache mocks the InvalidateCache method.
func (m *MockMasterFacility) InvalidateCache(kek []byte) {
	m.Called(kek)
}
