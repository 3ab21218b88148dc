package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstruct/internal/domain"
	"docstruct/internal/service"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Process(ctx context.Context, input *service.ProcessInput) (*domain.ProcessResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessResult), args.Error(1)
}

func (m *MockDocumentService) ExportTables(ctx context.Context, input *service.TableExportInput) (*domain.TableExportResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableExportResult), args.Error(1)
}

func (m *MockDocumentService) GetArtifact(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}
