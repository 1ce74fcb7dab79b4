package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProtocolClient is a mock implementation of ProtocolClient for testing.
type MockProtocolClient struct {
	mock.Mock
}

// Create mocks the Create method of ProtocolClient.
func (m *MockProtocolClient) Create(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Fetch mocks the Fetch method of ProtocolClient.
func (m *MockProtocolClient) Fetch(ctx context.Context, kek []byte) ([]byte, error) {
	args := m.Called(ctx, kek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Ping mocks the Ping method of ProtocolClient.
func (m *MockProtocolClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
