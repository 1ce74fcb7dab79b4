// Package mocks provides mock implementations of the facility interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockWrappedKeyStore is a mock implementation of WrappedKeyStore for testing.
type MockWrappedKeyStore struct {
	mock.Mock
}

// Get mocks the Get method of WrappedKeyStore.
func (m *MockWrappedKeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Set mocks the Set method of WrappedKeyStore.
func (m *MockWrappedKeyStore) Set(ctx context.Context, key string, wrapped []byte) error {
	args := m.Called(ctx, key, wrapped)
	return args.Error(0)
}

// Delete mocks the Delete method of WrappedKeyStore.
func (m *MockWrappedKeyStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// List mocks the List method of WrappedKeyStore.
func (m *MockWrappedKeyStore) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Contains mocks the Contains method of WrappedKeyStore.
func (m *MockWrappedKeyStore) Contains(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
