package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/repository/memory"
)

func newDB(t *testing.T) *memory.DB {
	t.Helper()
	db, err := memory.New()
	require.NoError(t, err)
	require.NoError(t, db.PutUser(model.User{ID: 1, Email: "Owner@Acme.io", Name: "Owner"}))
	require.NoError(t, db.PutUser(model.User{ID: 2, Email: "reader@other.org", Name: "Reader"}))
	return db
}

func TestDB_CreateAndGetDocument(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	doc, err := db.CreateDocument(ctx, model.NewDocument{Title: "Doc1", OwnerUserID: 1, TypeID: 1}, "loc-1")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "loc-1", doc.ContentLocation)

	got, err := db.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	item, err := db.GetDocumentListItem(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owner@Acme.io", item.OwnerEmail)
	assert.Equal(t, "Contrato", item.TypeLabel)

	byLoc, err := db.FindDocumentByLocation(ctx, "loc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byLoc.ID)

	_, err = db.FindDocumentByLocation(ctx, "nowhere")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = db.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDB_CreateDocument_InvalidReferences(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	_, err := db.CreateDocument(ctx, model.NewDocument{Title: "x", OwnerUserID: 99, TypeID: 1}, "loc")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = db.CreateDocument(ctx, model.NewDocument{Title: "x", OwnerUserID: 1, TypeID: 99}, "loc")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDB_ListDocuments(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := base
	db, err := memory.New(memory.WithClock(func() time.Time {
		tick = tick.Add(24 * time.Hour)
		return tick
	}))
	require.NoError(t, err)
	require.NoError(t, db.PutUser(model.User{ID: 1, Email: "owner@acme.io"}))
	require.NoError(t, db.PutUser(model.User{ID: 2, Email: "reader@other.org"}))

	a, err := db.CreateDocument(ctx, model.NewDocument{Title: "Annual Report", OwnerUserID: 1, TypeID: 3}, "a")
	require.NoError(t, err)
	b, err := db.CreateDocument(ctx, model.NewDocument{Title: "Invoice March", OwnerUserID: 2, TypeID: 2}, "b")
	require.NoError(t, err)
	c, err := db.CreateDocument(ctx, model.NewDocument{Title: "report draft", OwnerUserID: 2, TypeID: 3}, "c")
	require.NoError(t, err)

	ids := func(items []model.DocumentListItem) []string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}
	report := int64(3)

	tests := []struct {
		name   string
		filter model.ListFilter
		want   []string
	}{
		{name: "no filter newest first", filter: model.ListFilter{}, want: []string{c.ID, b.ID, a.ID}},
		{name: "title case-insensitive", filter: model.ListFilter{TitleContains: "REPORT"}, want: []string{c.ID, a.ID}},
		{name: "owner email", filter: model.ListFilter{OwnerEmailContains: "other"}, want: []string{c.ID, b.ID}},
		{name: "and-combined", filter: model.ListFilter{TitleContains: "report", OwnerEmailContains: "other", TypeID: &report}, want: []string{c.ID}},
		{
			name:   "date range",
			filter: model.ListFilter{CreatedBetween: &model.DateRange{From: a.CreatedAt, To: b.CreatedAt}},
			want:   []string{b.ID, a.ID},
		},
		{name: "no match", filter: model.ListFilter{TitleContains: "zzz"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := db.ListDocuments(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(items))
		})
	}
}

func TestDB_ReplaceContentAndVersions(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	doc, err := db.CreateDocument(ctx, model.NewDocument{Title: "Doc1", OwnerUserID: 1, TypeID: 1}, "v1")
	require.NoError(t, err)

	title := "Doc1 rev"
	updated, prev, err := db.ReplaceContent(ctx, doc.ID, model.ContentReplacement{Location: "v2", Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "v1", prev)
	assert.Equal(t, "v2", updated.ContentLocation)
	assert.Equal(t, "Doc1 rev", updated.Title)
	assert.NotNil(t, updated.ModifiedAt)

	_, err = db.AddVersion(ctx, doc.ID, prev)
	require.NoError(t, err)

	_, prev, err = db.ReplaceContent(ctx, doc.ID, model.ContentReplacement{Location: "v3"})
	require.NoError(t, err)
	assert.Equal(t, "v2", prev)
	_, err = db.AddVersion(ctx, doc.ID, prev)
	require.NoError(t, err)

	versions, err := db.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "v1", versions[0].BlobLocation)
	assert.Equal(t, "v2", versions[1].BlobLocation)

	got, err := db.GetVersion(ctx, versions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, versions[0], *got)

	deleted, err := db.DeleteVersion(ctx, versions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", deleted.BlobLocation)

	_, err = db.DeleteVersion(ctx, versions[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, _, err = db.ReplaceContent(ctx, "missing", model.ContentReplacement{Location: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = db.AddVersion(ctx, "missing", "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDB_DeleteDocumentCascades(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	doc, err := db.CreateDocument(ctx, model.NewDocument{Title: "Doc1", OwnerUserID: 1, TypeID: 1}, "v2")
	require.NoError(t, err)
	_, err = db.AddVersion(ctx, doc.ID, "v1")
	require.NoError(t, err)
	_, err = db.CreateShare(ctx, doc.ID, 1, 2, "read")
	require.NoError(t, err)
	_, err = db.CreateNotification(ctx, 2, "shared", "Doc1 was shared with you", doc.ID)
	require.NoError(t, err)
	_, err = db.AppendAudit(ctx, 1, &doc.ID, model.ActionAddDocument, "")
	require.NoError(t, err)

	deleted, err := db.DeleteDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", deleted.Document.ContentLocation)
	require.Len(t, deleted.Versions, 1)
	assert.Equal(t, "v1", deleted.Versions[0].BlobLocation)

	_, err = db.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	versions, err := db.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)

	shares, err := db.ListShares(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, shares)

	notes, err := db.ListNotifications(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, notes)

	audit, err := db.ListAudit(ctx, &doc.ID)
	require.NoError(t, err)
	assert.Len(t, audit, 1)

	_, err = db.DeleteDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDB_IncrementDownloadCount(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	doc, err := db.CreateDocument(ctx, model.NewDocument{Title: "Doc1", OwnerUserID: 1, TypeID: 1}, "loc")
	require.NoError(t, err)

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.IncrementDownloadCount(ctx, doc.ID, at))
	require.NoError(t, db.IncrementDownloadCount(ctx, doc.ID, at.Add(time.Minute)))

	got, err := db.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.DownloadCount)
	require.NotNil(t, got.LastDownloadedAt)
	assert.Equal(t, at.Add(time.Minute), *got.LastDownloadedAt)

	assert.ErrorIs(t, db.IncrementDownloadCount(ctx, "missing", at), repository.ErrNotFound)
}

func TestDB_Shares(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	doc, err := db.CreateDocument(ctx, model.NewDocument{Title: "Doc1", OwnerUserID: 1, TypeID: 1}, "loc")
	require.NoError(t, err)

	_, err = db.CreateShare(ctx, doc.ID, 1, 2, "read")
	require.NoError(t, err)
	_, err = db.CreateShare(ctx, doc.ID, 1, 2, "write")
	require.NoError(t, err)

	shares, err := db.ListShares(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, "read", shares[0].Permissions)
	assert.Equal(t, "write", shares[1].Permissions)

	_, err = db.CreateShare(ctx, "missing", 1, 2, "read")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = db.CreateShare(ctx, doc.ID, 1, 42, "read")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDB_Notifications(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	doc, err := db.CreateDocument(ctx, model.NewDocument{Title: "Doc1", OwnerUserID: 1, TypeID: 1}, "loc")
	require.NoError(t, err)

	first, err := db.CreateNotification(ctx, 2, "t1", "m1", doc.ID)
	require.NoError(t, err)
	second, err := db.CreateNotification(ctx, 2, "t2", "m2", doc.ID)
	require.NoError(t, err)

	notes, err := db.ListNotifications(ctx, 2)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID)

	_, err = db.DeleteNotification(ctx, first.ID, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	deleted, err := db.DeleteNotification(ctx, first.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, deleted.ID)

	notes, err = db.ListNotifications(ctx, 2)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, second.ID, notes[0].ID)

	_, err = db.DeleteNotification(ctx, first.ID, 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDB_Audit(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	docID := "doc-a"
	_, err := db.AppendAudit(ctx, 1, &docID, model.ActionAddDocument, "created")
	require.NoError(t, err)
	_, err = db.AppendAudit(ctx, 1, nil, model.ActionDownloadDocument, "loc")
	require.NoError(t, err)
	_, err = db.AppendAudit(ctx, 2, &docID, model.ActionShareDocument, "to 3")
	require.NoError(t, err)

	all, err := db.ListAudit(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.ActionShareDocument, all[0].Action)
	assert.Nil(t, all[1].DocumentID)

	scoped, err := db.ListAudit(ctx, &docID)
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	assert.Equal(t, model.ActionShareDocument, scoped[0].Action)
	assert.Equal(t, model.ActionAddDocument, scoped[1].Action)
}

func TestDB_ListTypes(t *testing.T) {
	db := newDB(t)

	types, err := db.ListTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultTypes, types)
}
