package backendmock

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/jananxd/AIEmailTemplate-Web-sub000/internal/backend"
)

// MockClient is a mock implementation of backend.Client.
type MockClient struct {
	mock.Mock
}

// Generate satisfies backend.Client.
func (m *MockClient) Generate(ctx context.Context, req backend.GenerateRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, req)

	var body io.ReadCloser
	if v := args.Get(0); v != nil {
		body = v.(io.ReadCloser)
	}

	return body, args.Error(1)
}

// TemplateExists satisfies backend.Client.
func (m *MockClient) TemplateExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
