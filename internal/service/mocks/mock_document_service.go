package mocks

import (
	"context"
	"io"
	"time"

	"docgen/internal/model"
	"docgen/internal/repository"
	"docgen/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Generate(ctx context.Context, templateType, documentType string, fields model.Fields, generatedBy string) ([]byte, error) {
	args := m.Called(ctx, templateType, documentType, fields, generatedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, filter repository.ListFilter, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, id string) (*model.DocumentRecord, io.ReadCloser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.DocumentRecord), args.Get(1).(io.ReadCloser), args.Error(2)
}

func (m *MockDocumentService) Link(ctx context.Context, id string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
