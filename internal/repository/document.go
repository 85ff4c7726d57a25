package repository

import (
	"context"
	"time"

	"docvault/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// Persistence only, no business rules.
type DocumentRepository interface {
	// CreateDocument inserts a new document pointing at location.
	// Returns ErrNotFound when the owner or type reference is unknown.
	CreateDocument(ctx context.Context, doc model.NewDocument, location string) (*model.Document, error)

	// GetDocument returns a document by its ID.
	GetDocument(ctx context.Context, id string) (*model.Document, error)

	// GetDocumentListItem returns a document joined with owner email and type label.
	GetDocumentListItem(ctx context.Context, id string) (*model.DocumentListItem, error)

	// FindDocumentByLocation returns the document whose current content is at location.
	FindDocumentByLocation(ctx context.Context, location string) (*model.Document, error)

	// ListDocuments returns documents matching every non-empty field of the filter.
	ListDocuments(ctx context.Context, filter model.ListFilter) ([]model.DocumentListItem, error)

	// ReplaceContent atomically points the document at a new location and
	// returns the updated row together with the location it replaced.
	ReplaceContent(ctx context.Context, id string, rep model.ContentReplacement) (*model.Document, string, error)

	// DeleteDocument removes a document; versions, shares and notifications
	// referencing it go with it. Audit records are kept.
	DeleteDocument(ctx context.Context, id string) (*DeletedDocument, error)

	// IncrementDownloadCount bumps the counter and stamps the download time.
	IncrementDownloadCount(ctx context.Context, id string, at time.Time) error

	// ListTypes returns the document type catalog.
	ListTypes(ctx context.Context) ([]model.DocumentType, error)
}

// VersionRepository manages archived content snapshots.
type VersionRepository interface {
	AddVersion(ctx context.Context, documentID, location string) (*model.DocumentVersion, error)
	GetVersion(ctx context.Context, versionID string) (*model.DocumentVersion, error)
	// ListVersions returns versions ordered by creation time ascending.
	ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error)
	DeleteVersion(ctx context.Context, versionID string) (*model.DocumentVersion, error)
}

// ShareRepository records document shares.
type ShareRepository interface {
	// CreateShare returns ErrNotFound when the document does not exist.
	CreateShare(ctx context.Context, documentID string, senderID, recipientID int64, permissions string) (*model.Share, error)
	ListShares(ctx context.Context, documentID string) ([]model.Share, error)
}

// NotificationRepository stores per-user notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, userID int64, title, message, documentID string) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	// DeleteNotification removes the row only when both id and owner match;
	// any other case yields ErrNotFound.
	DeleteNotification(ctx context.Context, id string, ownerUserID int64) (*model.Notification, error)
}

// AuditRepository appends and reads the audit trail.
type AuditRepository interface {
	AppendAudit(ctx context.Context, userID int64, documentID *string, action model.AuditAction, details string) (*model.AuditRecord, error)
	// ListAudit returns records newest first, optionally limited to one document.
	ListAudit(ctx context.Context, documentID *string) ([]model.AuditRecord, error)
}

// DeletedDocument is what DeleteDocument removed, so blobs can be purged afterwards.
type DeletedDocument struct {
	Document model.Document
	Versions []model.DocumentVersion
}
