package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// MockRepository is a testify double for repository.Repository.
type MockRepository struct {
	mock.Mock
}

var _ repository.Repository = (*MockRepository)(nil)

func (m *MockRepository) CreateDocument(ctx context.Context, doc model.NewDocument, location string) (*model.Document, error) {
	args := m.Called(ctx, doc, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockRepository) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockRepository) GetDocumentListItem(ctx context.Context, id string) (*model.DocumentListItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentListItem), args.Error(1)
}

func (m *MockRepository) FindDocumentByLocation(ctx context.Context, location string) (*model.Document, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockRepository) ListDocuments(ctx context.Context, filter model.ListFilter) ([]model.DocumentListItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentListItem), args.Error(1)
}

func (m *MockRepository) ReplaceContent(ctx context.Context, id string, rep model.ContentReplacement) (*model.Document, string, error) {
	args := m.Called(ctx, id, rep)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*model.Document), args.String(1), args.Error(2)
}

func (m *MockRepository) DeleteDocument(ctx context.Context, id string) (*repository.DeletedDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.DeletedDocument), args.Error(1)
}

func (m *MockRepository) IncrementDownloadCount(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockRepository) ListTypes(ctx context.Context) ([]model.DocumentType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentType), args.Error(1)
}

func (m *MockRepository) AddVersion(ctx context.Context, documentID, location string) (*model.DocumentVersion, error) {
	args := m.Called(ctx, documentID, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockRepository) GetVersion(ctx context.Context, versionID string) (*model.DocumentVersion, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockRepository) ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *MockRepository) DeleteVersion(ctx context.Context, versionID string) (*model.DocumentVersion, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockRepository) CreateShare(ctx context.Context, documentID string, senderID, recipientID int64, permissions string) (*model.Share, error) {
	args := m.Called(ctx, documentID, senderID, recipientID, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Share), args.Error(1)
}

func (m *MockRepository) ListShares(ctx context.Context, documentID string) ([]model.Share, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Share), args.Error(1)
}

func (m *MockRepository) CreateNotification(ctx context.Context, userID int64, title, message, documentID string) (*model.Notification, error) {
	args := m.Called(ctx, userID, title, message, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockRepository) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockRepository) DeleteNotification(ctx context.Context, id string, ownerUserID int64) (*model.Notification, error) {
	args := m.Called(ctx, id, ownerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockRepository) AppendAudit(ctx context.Context, userID int64, documentID *string, action model.AuditAction, details string) (*model.AuditRecord, error) {
	args := m.Called(ctx, userID, documentID, action, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditRecord), args.Error(1)
}

func (m *MockRepository) ListAudit(ctx context.Context, documentID *string) ([]model.AuditRecord, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditRecord), args.Error(1)
}
