package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstruct/internal/port"
)

// MockPageInference is a mock implementation of port.PageInference.
type MockPageInference struct {
	mock.Mock
}

func (m *MockPageInference) Infer(ctx context.Context, input port.InferInput) (*port.InferOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.InferOutput), args.Error(1)
}
