package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/model"
)

// MockRecoveryStore is a mock implementation of storage.RecoveryStore.
type MockRecoveryStore struct {
	mock.Mock
}

// Put satisfies storage.RecoveryStore.
func (m *MockRecoveryStore) Put(ctx context.Context, r model.RecoveryRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// Delete satisfies storage.RecoveryStore.
func (m *MockRecoveryStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// List satisfies storage.RecoveryStore.
func (m *MockRecoveryStore) List(ctx context.Context) ([]model.RecoveryRecord, error) {
	args := m.Called(ctx)

	var records []model.RecoveryRecord
	if v := args.Get(0); v != nil {
		records = v.([]model.RecoveryRecord)
	}

	return records, args.Error(1)
}
