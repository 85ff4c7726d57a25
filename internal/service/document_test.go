package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docvault/internal/audit"
	"docvault/internal/logging"
	"docvault/internal/model"
	"docvault/internal/notify"
	"docvault/internal/repository"
	repoMocks "docvault/internal/repository/mocks"
	"docvault/internal/storage"
	storeMocks "docvault/internal/storage/mocks"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu        sync.Mutex
	delivered []model.Notification
	users     []int64
}

func (d *recordingDispatcher) Deliver(_ context.Context, userID int64, n model.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = append(d.users, userID)
	d.delivered = append(d.delivered, n)
	return nil
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func newTestService(mRepo *repoMocks.MockRepository, mBlobs *storeMocks.MockBlobs, d *recordingDispatcher) DocumentService {
	var dispatcher notify.Dispatcher
	if d != nil {
		dispatcher = d
	}
	return NewDocumentService(mRepo, mBlobs, audit.NewRecorder(mRepo, nil), dispatcher,
		WithClock(func() time.Time { return fixedNow }),
		WithRunner(func(f func()) { f() }),
	)
}

func docID(id string) interface{} {
	return mock.MatchedBy(func(p *string) bool { return p != nil && *p == id })
}

func TestDocumentService_Add(t *testing.T) {
	ctx := context.Background()
	meta := model.NewDocument{Title: " Contrato 2024 ", OwnerUserID: 1, TypeID: 1}
	stored := model.NewDocument{Title: "Contrato 2024", OwnerUserID: 1, TypeID: 1}
	loc := "http://blobs.local/documents/abc/contrato.pdf"

	tests := []struct {
		name       string
		meta       model.NewDocument
		body       io.Reader
		setupMocks func(mRepo *repoMocks.MockRepository, mBlobs *storeMocks.MockBlobs, body io.Reader)
		wantErr    error
		wantMsg    string
	}{
		{
			name: "happy path",
			meta: meta,
			body: strings.NewReader("%PDF"),
			setupMocks: func(mRepo *repoMocks.MockRepository, mBlobs *storeMocks.MockBlobs, body io.Reader) {
				mBlobs.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, "/contrato.pdf")
				}), body, int64(4), "application/pdf").Return(loc, nil)
				mRepo.On("CreateDocument", ctx, stored, loc).
					Return(&model.Document{ID: "doc-1", Title: "Contrato 2024", ContentLocation: loc}, nil)
				mRepo.On("AppendAudit", ctx, int64(7), docID("doc-1"), model.ActionAddDocument,
					"Documento doc-1 agregado por el usuario 7").Return(&model.AuditRecord{ID: "a-1"}, nil)
			},
		},
		{
			name:    "validation error",
			meta:    model.NewDocument{Title: "  "},
			wantErr: &ValidationError{},
		},
		{
			name: "upload error",
			meta: meta,
			body: strings.NewReader("%PDF"),
			setupMocks: func(mRepo *repoMocks.MockRepository, mBlobs *storeMocks.MockBlobs, body io.Reader) {
				mBlobs.On("Put", ctx, mock.Anything, body, int64(4), "application/pdf").
					Return("", errors.New("bucket gone"))
			},
			wantErr: &UpstreamError{},
			wantMsg: "upload content: bucket gone",
		},
		{
			name: "invalid reference rolls back blob",
			meta: meta,
			body: strings.NewReader("%PDF"),
			setupMocks: func(mRepo *repoMocks.MockRepository, mBlobs *storeMocks.MockBlobs, body io.Reader) {
				mBlobs.On("Put", ctx, mock.Anything, body, int64(4), "application/pdf").Return(loc, nil)
				mRepo.On("CreateDocument", ctx, stored, loc).Return(nil, repository.ErrNotFound)
				mBlobs.On("Delete", ctx, loc).Return(nil)
			},
			wantErr: ErrNotFound,
			wantMsg: MsgReferenceNotFound,
		},
		{
			name: "audit failure is fatal",
			meta: meta,
			body: strings.NewReader("%PDF"),
			setupMocks: func(mRepo *repoMocks.MockRepository, mBlobs *storeMocks.MockBlobs, body io.Reader) {
				mBlobs.On("Put", ctx, mock.Anything, body, int64(4), "application/pdf").Return(loc, nil)
				mRepo.On("CreateDocument", ctx, stored, loc).Return(&model.Document{ID: "doc-1"}, nil)
				mRepo.On("AppendAudit", ctx, int64(7), mock.Anything, model.ActionAddDocument, mock.Anything).
					Return(nil, errors.New("disk full"))
			},
			wantErr: &UpstreamError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockRepository)
			mBlobs := new(storeMocks.MockBlobs)
			if tt.setupMocks != nil {
				tt.setupMocks(mRepo, mBlobs, tt.body)
			}
			svc := newTestService(mRepo, mBlobs, nil)

			doc, err := svc.Add(ctx, 7, tt.meta, Upload{Body: tt.body, Filename: "contrato.pdf", ContentType: "application/pdf", Size: 4})

			switch want := tt.wantErr.(type) {
			case nil:
				require.NoError(t, err)
				assert.Equal(t, "doc-1", doc.ID)
			case *ValidationError:
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Contains(t, ve.Fields, "title")
				assert.Contains(t, ve.Fields, "owner_user_id")
				assert.Contains(t, ve.Fields, "file")
			case *UpstreamError:
				var ue *UpstreamError
				require.ErrorAs(t, err, &ue)
			default:
				assert.ErrorIs(t, err, want)
			}
			if tt.wantMsg != "" {
				assert.EqualError(t, err, tt.wantMsg)
			}
			mRepo.AssertExpectations(t)
			mBlobs.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()
	newLoc := "http://blobs.local/documents/new/v2.txt"
	title := "Renamed"

	t.Run("archives the replaced location", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		body := strings.NewReader("world")

		mRepo.On("GetDocument", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		mBlobs.On("Put", ctx, mock.Anything, body, int64(5), "").Return(newLoc, nil)
		mRepo.On("ReplaceContent", ctx, "doc-1", model.ContentReplacement{Location: newLoc, Title: &title}).
			Return(&model.Document{ID: "doc-1", Title: title, ContentLocation: newLoc}, "old-loc", nil)
		mRepo.On("AddVersion", ctx, "doc-1", "old-loc").
			Return(&model.DocumentVersion{ID: "v-1", DocumentID: "doc-1", BlobLocation: "old-loc"}, nil)
		mRepo.On("AppendAudit", ctx, int64(7), docID("doc-1"), model.ActionUpdateDocument,
			"Documento doc-1 actualizado por el usuario 7").Return(&model.AuditRecord{ID: "a"}, nil)

		svc := newTestService(mRepo, mBlobs, nil)
		padded := "  Renamed "
		doc, err := svc.Update(ctx, 7, "doc-1", MetadataUpdate{Title: &padded}, Upload{Body: body, Filename: "v2.txt", Size: 5})
		require.NoError(t, err)
		assert.Equal(t, newLoc, doc.ContentLocation)
		mRepo.AssertNotCalled(t, "AddVersion", ctx, "doc-1", newLoc)
		mRepo.AssertExpectations(t)
	})

	t.Run("archive failure logs the superseded location", func(t *testing.T) {
		var buf bytes.Buffer
		lctx := logging.With(ctx, logging.NewWithWriter(&buf, "test"))
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		body := strings.NewReader("world")

		mRepo.On("GetDocument", lctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		mBlobs.On("Put", lctx, mock.Anything, body, int64(5), "").Return(newLoc, nil)
		mRepo.On("ReplaceContent", lctx, "doc-1", model.ContentReplacement{Location: newLoc}).
			Return(&model.Document{ID: "doc-1", ContentLocation: newLoc}, "old-loc", nil)
		mRepo.On("AddVersion", lctx, "doc-1", "old-loc").Return(nil, errors.New("connection reset"))

		svc := newTestService(mRepo, mBlobs, nil)
		_, err := svc.Update(lctx, 7, "doc-1", MetadataUpdate{}, Upload{Body: body, Filename: "v2.txt", Size: 5})

		var ue *UpstreamError
		require.ErrorAs(t, err, &ue)
		out := buf.String()
		assert.Contains(t, out, `"msg":"version_archive_failed"`)
		assert.Contains(t, out, `"previous":"old-loc"`)
		assert.Contains(t, out, `"document_id":"doc-1"`)
		mBlobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		mRepo.AssertNotCalled(t, "AppendAudit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown document uploads nothing", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		mRepo.On("GetDocument", ctx, "missing").Return(nil, repository.ErrNotFound)

		svc := newTestService(mRepo, mBlobs, nil)
		_, err := svc.Update(ctx, 7, "missing", MetadataUpdate{}, Upload{Body: strings.NewReader("x")})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, MsgDocumentNotFound)
		mBlobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("replace failure removes the new blob", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		typeID := int64(42)

		mRepo.On("GetDocument", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		mBlobs.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(newLoc, nil)
		mRepo.On("ReplaceContent", ctx, "doc-1", mock.Anything).Return(nil, "", repository.ErrNotFound)
		mBlobs.On("Delete", ctx, newLoc).Return(nil)

		svc := newTestService(mRepo, mBlobs, nil)
		_, err := svc.Update(ctx, 7, "doc-1", MetadataUpdate{TypeID: &typeID}, Upload{Body: strings.NewReader("x")})
		assert.EqualError(t, err, MsgTypeNotFound)
		mBlobs.AssertExpectations(t)
		mRepo.AssertNotCalled(t, "AddVersion", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Download(t *testing.T) {
	ctx := context.Background()
	loc := "http://blobs.local/documents/abc/informe%20final.pdf"

	t.Run("missing blob", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		mBlobs.On("Get", ctx, loc).Return(nil, storage.ErrNotFound)

		_, err := newTestService(mRepo, mBlobs, nil).Download(ctx, 7, loc)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "File not found")
		mRepo.AssertNotCalled(t, "AppendAudit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("counts and audits", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		blob := &storage.Blob{Body: io.NopCloser(strings.NewReader("data")), ContentType: "application/pdf", Filename: "informe final.pdf"}

		mBlobs.On("Get", ctx, loc).Return(blob, nil)
		mRepo.On("FindDocumentByLocation", ctx, loc).Return(&model.Document{ID: "doc-1"}, nil)
		mRepo.On("IncrementDownloadCount", ctx, "doc-1", fixedNow).Return(nil)
		mRepo.On("AppendAudit", ctx, int64(7), docID("doc-1"), model.ActionDownloadDocument,
			"Documento con URL "+loc+" descargado por el usuario 7").Return(&model.AuditRecord{ID: "a"}, nil)

		got, err := newTestService(mRepo, mBlobs, nil).Download(ctx, 7, loc)
		require.NoError(t, err)
		assert.Same(t, blob, got)
		mRepo.AssertExpectations(t)
	})

	t.Run("location of no current document", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		blob := &storage.Blob{Body: io.NopCloser(strings.NewReader("old"))}

		mBlobs.On("Get", ctx, loc).Return(blob, nil)
		mRepo.On("FindDocumentByLocation", ctx, loc).Return(nil, repository.ErrNotFound)
		mRepo.On("AppendAudit", ctx, int64(7), (*string)(nil), model.ActionDownloadDocument, mock.Anything).
			Return(&model.AuditRecord{ID: "a"}, nil)

		_, err := newTestService(mRepo, mBlobs, nil).Download(ctx, 7, loc)
		require.NoError(t, err)
		mRepo.AssertNotCalled(t, "IncrementDownloadCount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("audit failure closes the body", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		body := &closeTracker{Reader: strings.NewReader("data")}

		mBlobs.On("Get", ctx, loc).Return(&storage.Blob{Body: body}, nil)
		mRepo.On("FindDocumentByLocation", ctx, loc).Return(&model.Document{ID: "doc-1"}, nil)
		mRepo.On("IncrementDownloadCount", ctx, "doc-1", fixedNow).Return(nil)
		mRepo.On("AppendAudit", ctx, int64(7), mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("db down"))

		_, err := newTestService(mRepo, mBlobs, nil).Download(ctx, 7, loc)
		var ue *UpstreamError
		assert.ErrorAs(t, err, &ue)
		assert.True(t, body.closed)
	})

	t.Run("empty location", func(t *testing.T) {
		_, err := newTestService(new(repoMocks.MockRepository), new(storeMocks.MockBlobs), nil).Download(ctx, 7, " ")
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("purges every blob and tolerates missing ones", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)

		mRepo.On("DeleteDocument", ctx, "doc-1").Return(&repository.DeletedDocument{
			Document: model.Document{ID: "doc-1", ContentLocation: "loc-main"},
			Versions: []model.DocumentVersion{{BlobLocation: "loc-v1"}, {BlobLocation: "loc-v2"}},
		}, nil)
		mBlobs.On("Delete", ctx, "loc-main").Return(nil)
		mBlobs.On("Delete", ctx, "loc-v1").Return(storage.ErrNotFound)
		mBlobs.On("Delete", ctx, "loc-v2").Return(errors.New("timeout"))
		mRepo.On("AppendAudit", ctx, int64(7), docID("doc-1"), model.ActionDeleteDocument,
			"Documento doc-1 eliminado por el usuario 7").Return(&model.AuditRecord{ID: "a"}, nil)

		err := newTestService(mRepo, mBlobs, nil).Delete(ctx, 7, "doc-1")
		require.NoError(t, err)
		mBlobs.AssertNumberOfCalls(t, "Delete", 3)
		mRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		mRepo.On("DeleteDocument", ctx, "nope").Return(nil, repository.ErrNotFound)

		err := newTestService(mRepo, mBlobs, nil).Delete(ctx, 7, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		mBlobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("database failure is upstream", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mRepo.On("DeleteDocument", ctx, "doc-1").Return(nil, errors.New("conn reset"))

		err := newTestService(mRepo, new(storeMocks.MockBlobs), nil).Delete(ctx, 7, "doc-1")
		var ue *UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "delete document", ue.Op)
	})
}

func TestDocumentService_Share(t *testing.T) {
	ctx := context.Background()
	req := ShareRequest{DocumentID: "doc-1", SenderID: 1, RecipientID: 2, Permissions: "lectura"}
	doc := &model.Document{ID: "doc-1", Title: "Contrato"}

	t.Run("creates share, notification and dispatch", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		d := &recordingDispatcher{}
		n := &model.Notification{ID: "n-1", UserID: 2, DocumentID: "doc-1"}

		mRepo.On("GetDocument", ctx, "doc-1").Return(doc, nil)
		mRepo.On("CreateShare", ctx, "doc-1", int64(1), int64(2), "lectura").Return(&model.Share{ID: "s-1"}, nil)
		mRepo.On("AppendAudit", ctx, int64(1), docID("doc-1"), model.ActionShareDocument,
			"Documento doc-1 compartido con el usuario 2 con permisos lectura").Return(&model.AuditRecord{ID: "a"}, nil)
		mRepo.On("CreateNotification", ctx, int64(2), "Documento compartido", mock.MatchedBy(func(msg string) bool {
			return strings.Contains(msg, `"Contrato"`)
		}), "doc-1").Return(n, nil)

		share, err := newTestService(mRepo, new(storeMocks.MockBlobs), d).Share(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "s-1", share.ID)
		assert.Equal(t, []int64{2}, d.users)
		assert.Equal(t, []model.Notification{*n}, d.delivered)
		mRepo.AssertExpectations(t)
	})

	t.Run("notification failure keeps the share", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		d := &recordingDispatcher{}

		mRepo.On("GetDocument", ctx, "doc-1").Return(doc, nil)
		mRepo.On("CreateShare", ctx, "doc-1", int64(1), int64(2), "lectura").Return(&model.Share{ID: "s-1"}, nil)
		mRepo.On("AppendAudit", ctx, int64(1), mock.Anything, mock.Anything, mock.Anything).Return(&model.AuditRecord{ID: "a"}, nil)
		mRepo.On("CreateNotification", ctx, int64(2), mock.Anything, mock.Anything, "doc-1").Return(nil, errors.New("boom"))

		share, err := newTestService(mRepo, new(storeMocks.MockBlobs), d).Share(ctx, req)
		require.NoError(t, err)
		assert.NotNil(t, share)
		assert.Empty(t, d.delivered)
	})

	t.Run("unknown document", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mRepo.On("GetDocument", ctx, "doc-1").Return(nil, repository.ErrNotFound)

		_, err := newTestService(mRepo, new(storeMocks.MockBlobs), nil).Share(ctx, req)
		assert.EqualError(t, err, MsgDocumentNotFound)
		mRepo.AssertNotCalled(t, "CreateShare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mRepo.On("GetDocument", ctx, "doc-1").Return(doc, nil)
		mRepo.On("CreateShare", ctx, "doc-1", int64(1), int64(2), "lectura").Return(nil, repository.ErrNotFound)

		_, err := newTestService(mRepo, new(storeMocks.MockBlobs), nil).Share(ctx, req)
		assert.EqualError(t, err, MsgRecipientNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := newTestService(new(repoMocks.MockRepository), new(storeMocks.MockBlobs), nil).
			Share(ctx, ShareRequest{DocumentID: "doc-1", SenderID: 1})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Len(t, ve.Fields, 2)
	})
}

func TestDocumentService_DeleteVersion(t *testing.T) {
	ctx := context.Background()
	version := &model.DocumentVersion{ID: "v-1", DocumentID: "doc-1", BlobLocation: "old-loc"}

	t.Run("deletes blob then row", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)

		mRepo.On("GetVersion", ctx, "v-1").Return(version, nil)
		mBlobs.On("Delete", ctx, "old-loc").Return(nil)
		mRepo.On("DeleteVersion", ctx, "v-1").Return(version, nil)
		mRepo.On("AppendAudit", ctx, int64(7), docID("doc-1"), model.ActionDeleteVersion,
			"Versión v-1 eliminada por el usuario 7").Return(&model.AuditRecord{ID: "a"}, nil)

		require.NoError(t, newTestService(mRepo, mBlobs, nil).DeleteVersion(ctx, 7, "v-1"))
		mRepo.AssertExpectations(t)
		mBlobs.AssertExpectations(t)
	})

	t.Run("missing blob keeps the row", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)

		mRepo.On("GetVersion", ctx, "v-1").Return(version, nil)
		mBlobs.On("Delete", ctx, "old-loc").Return(storage.ErrNotFound)

		err := newTestService(mRepo, mBlobs, nil).DeleteVersion(ctx, 7, "v-1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, MsgVersionBlobNotFound)
		mRepo.AssertNotCalled(t, "DeleteVersion", mock.Anything, mock.Anything)
	})

	t.Run("unknown version", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mRepo.On("GetVersion", ctx, "v-9").Return(nil, repository.ErrNotFound)

		err := newTestService(mRepo, new(storeMocks.MockBlobs), nil).DeleteVersion(ctx, 7, "v-9")
		assert.EqualError(t, err, MsgVersionNotFound)
	})
}

func TestDocumentService_Reads(t *testing.T) {
	ctx := context.Background()

	t.Run("get by id bundles versions", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		item := &model.DocumentListItem{Document: model.Document{ID: "doc-1"}, OwnerEmail: "a@b.c"}
		mRepo.On("GetDocumentListItem", ctx, "doc-1").Return(item, nil)
		mRepo.On("ListVersions", ctx, "doc-1").Return(nil, nil)
		mRepo.On("ListShares", ctx, "doc-1").Return([]model.Share{{ID: "s-1", RecipientUserID: 2}}, nil)

		detail, err := newTestService(mRepo, new(storeMocks.MockBlobs), nil).GetByID(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, *item, detail.Document)
		assert.NotNil(t, detail.Versions)
		assert.Empty(t, detail.Versions)
		require.Len(t, detail.Shares, 1)
		assert.Equal(t, int64(2), detail.Shares[0].RecipientUserID)
		assert.Empty(t, detail.DownloadURL)
	})

	t.Run("get by id signs download links", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mBlobs := new(storeMocks.MockBlobs)
		item := &model.DocumentListItem{Document: model.Document{ID: "doc-1", ContentLocation: "loc-current"}}
		mRepo.On("GetDocumentListItem", ctx, "doc-1").Return(item, nil)
		mRepo.On("ListVersions", ctx, "doc-1").Return([]model.DocumentVersion{
			{ID: "v-1", BlobLocation: "loc-v1"},
			{ID: "v-2", BlobLocation: "loc-v2"},
		}, nil)
		mRepo.On("ListShares", ctx, "doc-1").Return(nil, nil)
		mBlobs.On("Presign", ctx, "loc-current", 10*time.Minute).Return("https://signed/current", nil)
		mBlobs.On("Presign", ctx, "loc-v1", 10*time.Minute).Return("https://signed/v1", nil)
		mBlobs.On("Presign", ctx, "loc-v2", 10*time.Minute).Return("", storage.ErrNotFound)

		svc := NewDocumentService(mRepo, mBlobs, audit.NewRecorder(mRepo, nil), nil, WithPresignExpiry(10*time.Minute))
		detail, err := svc.GetByID(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "https://signed/current", detail.DownloadURL)
		require.Len(t, detail.Versions, 2)
		assert.Equal(t, "https://signed/v1", detail.Versions[0].DownloadURL)
		assert.Empty(t, detail.Versions[1].DownloadURL)
		assert.NotNil(t, detail.Shares)
		mBlobs.AssertExpectations(t)
	})

	t.Run("list rejects inverted date range", func(t *testing.T) {
		svc := newTestService(new(repoMocks.MockRepository), new(storeMocks.MockBlobs), nil)
		_, err := svc.List(ctx, model.ListFilter{CreatedBetween: &model.DateRange{From: fixedNow, To: fixedNow.Add(-time.Hour)}})
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("list passes the filter through", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		filter := model.ListFilter{TitleContains: "acta"}
		mRepo.On("ListDocuments", ctx, filter).Return([]model.DocumentListItem{{}}, nil)

		items, err := newTestService(mRepo, new(storeMocks.MockBlobs), nil).List(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("audit logs", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		id := "doc-1"
		mRepo.On("ListAudit", ctx, &id).Return([]model.AuditRecord{{ID: "a"}}, nil)

		records, err := newTestService(mRepo, new(storeMocks.MockBlobs), nil).GetAuditLogs(ctx, &id)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("types upstream error", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mRepo.On("ListTypes", ctx).Return(nil, errors.New("down"))

		_, err := newTestService(mRepo, new(storeMocks.MockBlobs), nil).GetTypes(ctx)
		var ue *UpstreamError
		assert.ErrorAs(t, err, &ue)
	})

	t.Run("delete notification of another user", func(t *testing.T) {
		mRepo := new(repoMocks.MockRepository)
		mRepo.On("DeleteNotification", ctx, "n-1", int64(3)).Return(nil, repository.ErrNotFound)

		err := newTestService(mRepo, new(storeMocks.MockBlobs), nil).DeleteNotification(ctx, 3, "n-1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, MsgNotificationNotFound)
	})
}

func TestErrors(t *testing.T) {
	ve := &ValidationError{Fields: map[string]string{"title": "is required", "file": "is required"}}
	assert.Equal(t, "validation failed: file: is required, title: is required", ve.Error())

	cause := errors.New("refused")
	ue := upstream("get content", cause)
	assert.ErrorIs(t, ue, cause)
	assert.Equal(t, "get content: refused", ue.Error())

	assert.ErrorIs(t, notFound(MsgFileNotFound), ErrNotFound)
	assert.NotErrorIs(t, ue, ErrNotFound)
}
