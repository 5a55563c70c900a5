package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"documind/internal/model"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) ListActive(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) InsertIfAbsent(ctx context.Context, doc model.Document) (bool, error) {
	args := m.Called(ctx, doc)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) UpdateStatus(ctx context.Context, id string, patch model.StatusPatch) (model.Document, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (model.Document, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Document), args.Error(1)
}
