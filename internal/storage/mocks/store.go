package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// ObjectStore is a mock implementation of storage.ObjectStore
type ObjectStore struct {
	mock.Mock
}

func (m *ObjectStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	args := m.Called(ctx, key, r)
	return args.String(0), args.Error(1)
}

func (m *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *ObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *ObjectStore) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *ObjectStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
