package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docgen/internal/model"
)

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, tmpl model.TemplateType, format model.DocumentType, fields model.Fields) ([]byte, error) {
	args := m.Called(ctx, tmpl, format, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRenderer) Supports(tmpl model.TemplateType, format model.DocumentType) bool {
	args := m.Called(tmpl, format)
	return args.Bool(0)
}
