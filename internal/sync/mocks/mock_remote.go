package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"documind/internal/model"
	"documind/internal/remote"
)

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) FetchDocuments(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	if docs, ok := args.Get(0).([]model.Document); ok {
		return docs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemote) UploadDocument(ctx context.Context, doc model.Document, files []remote.File) error {
	args := m.Called(ctx, doc, files)
	return args.Error(0)
}

func (m *MockRemote) PatchDocumentStatus(ctx context.Context, id string, patch model.StatusPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}
