// Package service sequences the document lifecycle workflows:
// content persisted, then metadata committed, then audit recorded,
// then notification sent.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docvault/internal/logging"
	"docvault/internal/model"
	"docvault/internal/notify"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

// Upload is content supplied by the caller.
type Upload struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// MetadataUpdate carries optional metadata changes applied with a content update.
type MetadataUpdate struct {
	Title       *string
	Description *string
	TypeID      *int64
}

// ShareRequest grants a recipient access to a document.
type ShareRequest struct {
	DocumentID  string
	SenderID    int64
	RecipientID int64
	Permissions string
}

// AuditRecorder appends and reads the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, userID int64, documentID *string, action model.AuditAction, details string) error
	List(ctx context.Context, documentID *string) ([]model.AuditRecord, error)
}

// DocumentService defines the document lifecycle use cases.
type DocumentService interface {
	// Add uploads content, then creates its metadata. The blob is removed
	// again if the metadata cannot be written.
	Add(ctx context.Context, actorID int64, doc model.NewDocument, content Upload) (*model.Document, error)

	// Update uploads new content and archives the location it replaces as a version.
	Update(ctx context.Context, actorID int64, id string, meta MetadataUpdate, content Upload) (*model.Document, error)

	// Download opens the content at location. The caller must close Blob.Body.
	Download(ctx context.Context, actorID int64, location string) (*storage.Blob, error)

	// Delete removes a document, its versions, shares and notifications,
	// then purges every blob it referenced.
	Delete(ctx context.Context, actorID int64, id string) error

	// Share records a share and notifies the recipient.
	Share(ctx context.Context, req ShareRequest) (*model.Share, error)

	// DeleteVersion removes an archived version and its blob together.
	DeleteVersion(ctx context.Context, actorID int64, versionID string) error

	List(ctx context.Context, filter model.ListFilter) ([]model.DocumentListItem, error)
	GetByID(ctx context.Context, id string) (*model.DocumentDetail, error)
	GetAuditLogs(ctx context.Context, documentID *string) ([]model.AuditRecord, error)
	GetTypes(ctx context.Context) ([]model.DocumentType, error)
	ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	DeleteNotification(ctx context.Context, userID int64, id string) error
}

const (
	defaultKeyPrefix  = "documents"
	defaultPurgeLimit = 4
	notificationTitle = "Documento compartido"
)

// Option configures the document service.
type Option func(*documentService)

// WithKeyPrefix sets the object key prefix for uploads.
func WithKeyPrefix(prefix string) Option {
	return func(s *documentService) { s.keyPrefix = prefix }
}

// WithClock overrides the time source used for download stamps.
func WithClock(now func() time.Time) Option {
	return func(s *documentService) { s.now = now }
}

// WithRunner sets how notification dispatch is scheduled. The default runs
// it on a new goroutine.
func WithRunner(run func(func())) Option {
	return func(s *documentService) { s.run = run }
}

// WithPresignExpiry makes GetByID attach signed download links valid for d.
// Zero leaves them out.
func WithPresignExpiry(d time.Duration) Option {
	return func(s *documentService) { s.presignExpiry = d }
}

// WithPurgeLimit bounds concurrent blob deletes when a document is removed.
func WithPurgeLimit(n int) Option {
	return func(s *documentService) {
		if n > 0 {
			s.purgeLimit = n
		}
	}
}

type documentService struct {
	repo       repository.Repository
	blobs      storage.Blobs
	audit      AuditRecorder
	dispatcher notify.Dispatcher

	keyPrefix     string
	purgeLimit    int
	presignExpiry time.Duration
	now           func() time.Time
	run           func(func())
}

// NewDocumentService wires the lifecycle service. dispatcher may be nil.
func NewDocumentService(
	repo repository.Repository,
	blobs storage.Blobs,
	audit AuditRecorder,
	dispatcher notify.Dispatcher,
	opts ...Option,
) DocumentService {
	s := &documentService{
		repo:       repo,
		blobs:      blobs,
		audit:      audit,
		dispatcher: dispatcher,
		keyPrefix:  defaultKeyPrefix,
		purgeLimit: defaultPurgeLimit,
		now:        time.Now,
		run:        func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func logger(ctx context.Context) logging.Logger {
	return logging.From(ctx).With(zap.String("component", "service"))
}

// repoErr maps a repository failure to the service taxonomy.
func repoErr(op string, err error, missing string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(missing)
	}
	return upstream(op, err)
}

func (s *documentService) record(ctx context.Context, actorID int64, documentID *string, action model.AuditAction, details string) error {
	if err := s.audit.Record(ctx, actorID, documentID, action, details); err != nil {
		return upstream("record audit", err)
	}
	return nil
}

func (s *documentService) put(ctx context.Context, content Upload) (string, error) {
	key := storage.ObjectKey(s.keyPrefix, content.Filename)
	loc, err := s.blobs.Put(ctx, key, content.Body, content.Size, content.ContentType)
	if err != nil {
		return "", upstream("upload content", err)
	}
	return loc, nil
}

// discard removes a blob uploaded by a request whose metadata write failed.
func (s *documentService) discard(ctx context.Context, location string, cause error) {
	if err := s.blobs.Delete(ctx, location); err != nil {
		logger(ctx).Error("blob_rollback_failed",
			zap.String("location", location),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
	}
}

func (s *documentService) Add(ctx context.Context, actorID int64, doc model.NewDocument, content Upload) (*model.Document, error) {
	doc.Title = strings.TrimSpace(doc.Title)

	v := validation{}
	v.check(doc.Title != "", "title", "is required")
	v.check(doc.OwnerUserID > 0, "owner_user_id", "is required")
	v.check(doc.TypeID > 0, "type_id", "is required")
	v.check(content.Body != nil, "file", "is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	loc, err := s.put(ctx, content)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateDocument(ctx, doc, loc)
	if err != nil {
		s.discard(ctx, loc, err)
		return nil, repoErr("create document", err, MsgReferenceNotFound)
	}

	details := fmt.Sprintf("Documento %s agregado por el usuario %d", created.ID, actorID)
	if err := s.record(ctx, actorID, &created.ID, model.ActionAddDocument, details); err != nil {
		return nil, err
	}

	logger(ctx).Info("document_added",
		zap.String("document_id", created.ID),
		zap.String("location", created.ContentLocation),
	)
	return created, nil
}

func (s *documentService) Update(ctx context.Context, actorID int64, id string, meta MetadataUpdate, content Upload) (*model.Document, error) {
	v := validation{}
	v.check(id != "", "id", "is required")
	v.check(content.Body != nil, "file", "is required")
	if meta.Title != nil {
		t := strings.TrimSpace(*meta.Title)
		meta.Title = &t
		v.check(t != "", "title", "must not be empty")
	}
	if meta.TypeID != nil {
		v.check(*meta.TypeID > 0, "type_id", "must be positive")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetDocument(ctx, id); err != nil {
		return nil, repoErr("get document", err, MsgDocumentNotFound)
	}

	loc, err := s.put(ctx, content)
	if err != nil {
		return nil, err
	}

	updated, previous, err := s.repo.ReplaceContent(ctx, id, model.ContentReplacement{
		Location:    loc,
		Title:       meta.Title,
		Description: meta.Description,
		TypeID:      meta.TypeID,
	})
	if err != nil {
		s.discard(ctx, loc, err)
		missing := MsgDocumentNotFound
		if meta.TypeID != nil {
			missing = MsgTypeNotFound
		}
		return nil, repoErr("replace content", err, missing)
	}

	version, err := s.repo.AddVersion(ctx, id, previous)
	if err != nil {
		// The document already points at loc; previous is no longer referenced anywhere.
		logger(ctx).Error("version_archive_failed",
			zap.String("document_id", id),
			zap.String("previous", previous),
			zap.String("location", loc),
			zap.Error(err),
		)
		return nil, repoErr("add version", err, MsgDocumentNotFound)
	}

	details := fmt.Sprintf("Documento %s actualizado por el usuario %d", id, actorID)
	if err := s.record(ctx, actorID, &id, model.ActionUpdateDocument, details); err != nil {
		return nil, err
	}

	logger(ctx).Info("document_updated",
		zap.String("document_id", id),
		zap.String("version_id", version.ID),
		zap.String("location", updated.ContentLocation),
	)
	return updated, nil
}

func (s *documentService) Download(ctx context.Context, actorID int64, location string) (*storage.Blob, error) {
	v := validation{}
	v.check(strings.TrimSpace(location) != "", "document_url", "is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	blob, err := s.blobs.Get(ctx, location)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound(MsgFileNotFound)
		}
		return nil, upstream("get content", err)
	}

	fail := func(err error) (*storage.Blob, error) {
		_ = blob.Body.Close()
		return nil, err
	}

	var docID *string
	doc, err := s.repo.FindDocumentByLocation(ctx, location)
	switch {
	case err == nil:
		docID = &doc.ID
		if err := s.repo.IncrementDownloadCount(ctx, doc.ID, s.now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fail(upstream("increment download count", err))
		}
	case errors.Is(err, repository.ErrNotFound):
		logger(ctx).Debug("download_unattributed", zap.String("location", location))
	default:
		return fail(upstream("find document", err))
	}

	details := fmt.Sprintf("Documento con URL %s descargado por el usuario %d", location, actorID)
	if err := s.record(ctx, actorID, docID, model.ActionDownloadDocument, details); err != nil {
		return fail(err)
	}
	return blob, nil
}

func (s *documentService) Delete(ctx context.Context, actorID int64, id string) error {
	if id == "" {
		return &ValidationError{Fields: map[string]string{"id": "is required"}}
	}

	deleted, err := s.repo.DeleteDocument(ctx, id)
	if err != nil {
		return repoErr("delete document", err, MsgDocumentNotFound)
	}

	locations := make([]string, 0, len(deleted.Versions)+1)
	locations = append(locations, deleted.Document.ContentLocation)
	for _, v := range deleted.Versions {
		locations = append(locations, v.BlobLocation)
	}
	s.purge(ctx, id, locations)

	details := fmt.Sprintf("Documento %s eliminado por el usuario %d", id, actorID)
	return s.record(ctx, actorID, &id, model.ActionDeleteDocument, details)
}

// purge deletes blobs left behind by a removed document. Failures are logged
// and never fail the request.
func (s *documentService) purge(ctx context.Context, documentID string, locations []string) {
	log := logger(ctx).With(zap.String("document_id", documentID))

	var g errgroup.Group
	g.SetLimit(s.purgeLimit)
	for _, loc := range locations {
		g.Go(func() error {
			err := s.blobs.Delete(ctx, loc)
			if errors.Is(err, storage.ErrNotFound) {
				log.Warn("blob_purge_missing", zap.String("location", loc))
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", loc, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("blob_purge_failed", zap.Error(err))
	}
}

func (s *documentService) Share(ctx context.Context, req ShareRequest) (*model.Share, error) {
	req.Permissions = strings.TrimSpace(req.Permissions)

	v := validation{}
	v.check(req.DocumentID != "", "document_id", "is required")
	v.check(req.RecipientID > 0, "recipient_user_id", "is required")
	v.check(req.Permissions != "", "permissions", "is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, repoErr("get document", err, MsgDocumentNotFound)
	}

	share, err := s.repo.CreateShare(ctx, req.DocumentID, req.SenderID, req.RecipientID, req.Permissions)
	if err != nil {
		return nil, repoErr("create share", err, MsgRecipientNotFound)
	}

	details := fmt.Sprintf("Documento %s compartido con el usuario %d con permisos %s",
		req.DocumentID, req.RecipientID, req.Permissions)
	if err := s.record(ctx, req.SenderID, &req.DocumentID, model.ActionShareDocument, details); err != nil {
		return nil, err
	}

	s.notify(ctx, doc, req)
	return share, nil
}

// notify persists the recipient's notification and hands it to the
// dispatcher. Nothing here fails the share.
func (s *documentService) notify(ctx context.Context, doc *model.Document, req ShareRequest) {
	msg := fmt.Sprintf("El usuario %d compartió contigo el documento %q", req.SenderID, doc.Title)
	n, err := s.repo.CreateNotification(ctx, req.RecipientID, notificationTitle, msg, doc.ID)
	if err != nil {
		logger(ctx).Warn("notification_create_failed",
			zap.String("document_id", doc.ID),
			zap.Int64("recipient_id", req.RecipientID),
			zap.Error(err),
		)
		return
	}
	if s.dispatcher == nil {
		return
	}

	dctx := context.WithoutCancel(ctx)
	s.run(func() {
		if err := s.dispatcher.Deliver(dctx, req.RecipientID, *n); err != nil {
			logger(dctx).Warn("notification_dispatch_failed",
				zap.String("notification_id", n.ID),
				zap.Error(err),
			)
		}
	})
}

func (s *documentService) DeleteVersion(ctx context.Context, actorID int64, versionID string) error {
	if versionID == "" {
		return &ValidationError{Fields: map[string]string{"version_id": "is required"}}
	}

	version, err := s.repo.GetVersion(ctx, versionID)
	if err != nil {
		return repoErr("get version", err, MsgVersionNotFound)
	}

	if err := s.blobs.Delete(ctx, version.BlobLocation); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(MsgVersionBlobNotFound)
		}
		return upstream("delete version content", err)
	}

	if _, err := s.repo.DeleteVersion(ctx, versionID); err != nil {
		return repoErr("delete version", err, MsgVersionNotFound)
	}

	details := fmt.Sprintf("Versión %s eliminada por el usuario %d", versionID, actorID)
	return s.record(ctx, actorID, &version.DocumentID, model.ActionDeleteVersion, details)
}

func (s *documentService) List(ctx context.Context, filter model.ListFilter) ([]model.DocumentListItem, error) {
	if r := filter.CreatedBetween; r != nil && !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return nil, &ValidationError{Fields: map[string]string{"fecha_fin": "must not be before fecha_inicio"}}
	}
	items, err := s.repo.ListDocuments(ctx, filter)
	if err != nil {
		return nil, upstream("list documents", err)
	}
	return items, nil
}

func (s *documentService) GetByID(ctx context.Context, id string) (*model.DocumentDetail, error) {
	item, err := s.repo.GetDocumentListItem(ctx, id)
	if err != nil {
		return nil, repoErr("get document", err, MsgDocumentNotFound)
	}
	versions, err := s.repo.ListVersions(ctx, id)
	if err != nil {
		return nil, upstream("list versions", err)
	}
	if versions == nil {
		versions = []model.DocumentVersion{}
	}
	shares, err := s.repo.ListShares(ctx, id)
	if err != nil {
		return nil, upstream("list shares", err)
	}
	if shares == nil {
		shares = []model.Share{}
	}

	detail := &model.DocumentDetail{Document: *item, Versions: versions, Shares: shares}
	if s.presignExpiry > 0 {
		detail.DownloadURL = s.presign(ctx, item.ContentLocation)
		for i := range detail.Versions {
			detail.Versions[i].DownloadURL = s.presign(ctx, detail.Versions[i].BlobLocation)
		}
	}
	return detail, nil
}

// presign returns an empty link when signing fails; the stored location
// still works through the download endpoint.
func (s *documentService) presign(ctx context.Context, location string) string {
	u, err := s.blobs.Presign(ctx, location, s.presignExpiry)
	if err != nil {
		logger(ctx).Warn("presign_failed", zap.String("location", location), zap.Error(err))
		return ""
	}
	return u
}

func (s *documentService) GetAuditLogs(ctx context.Context, documentID *string) ([]model.AuditRecord, error) {
	records, err := s.audit.List(ctx, documentID)
	if err != nil {
		return nil, upstream("list audit", err)
	}
	return records, nil
}

func (s *documentService) GetTypes(ctx context.Context) ([]model.DocumentType, error) {
	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, upstream("list types", err)
	}
	return types, nil
}

func (s *documentService) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	items, err := s.repo.ListNotifications(ctx, userID)
	if err != nil {
		return nil, upstream("list notifications", err)
	}
	return items, nil
}

func (s *documentService) DeleteNotification(ctx context.Context, userID int64, id string) error {
	if _, err := s.repo.DeleteNotification(ctx, id, userID); err != nil {
		return repoErr("delete notification", err, MsgNotificationNotFound)
	}
	return nil
}
