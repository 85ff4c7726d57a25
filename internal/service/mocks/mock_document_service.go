package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
	"docvault/internal/service"
	"docvault/internal/storage"
)

type MockDocumentService struct {
	mock.Mock
}

var _ service.DocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) Add(ctx context.Context, actorID int64, doc model.NewDocument, content service.Upload) (*model.Document, error) {
	args := m.Called(ctx, actorID, doc, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, actorID int64, id string, meta service.MetadataUpdate, content service.Upload) (*model.Document, error) {
	args := m.Called(ctx, actorID, id, meta, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, actorID int64, location string) (*storage.Blob, error) {
	args := m.Called(ctx, actorID, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Blob), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, actorID int64, id string) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

func (m *MockDocumentService) Share(ctx context.Context, req service.ShareRequest) (*model.Share, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Share), args.Error(1)
}

func (m *MockDocumentService) DeleteVersion(ctx context.Context, actorID int64, versionID string) error {
	args := m.Called(ctx, actorID, versionID)
	return args.Error(0)
}

func (m *MockDocumentService) List(ctx context.Context, filter model.ListFilter) ([]model.DocumentListItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentListItem), args.Error(1)
}

func (m *MockDocumentService) GetByID(ctx context.Context, id string) (*model.DocumentDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentDetail), args.Error(1)
}

func (m *MockDocumentService) GetAuditLogs(ctx context.Context, documentID *string) ([]model.AuditRecord, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditRecord), args.Error(1)
}

func (m *MockDocumentService) GetTypes(ctx context.Context) ([]model.DocumentType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentType), args.Error(1)
}

func (m *MockDocumentService) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockDocumentService) DeleteNotification(ctx context.Context, userID int64, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
