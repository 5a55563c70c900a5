package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"documind/internal/model"
	"documind/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Register(ctx context.Context, doc model.Document, parts []service.Part) (service.RegisterResult, error) {
	args := m.Called(ctx, doc, parts)
	return args.Get(0).(service.RegisterResult), args.Error(1)
}

func (m *MockDocumentService) UpdateStatus(ctx context.Context, id string, patch model.StatusPatch) (model.Document, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(model.Document), args.Error(1)
}
