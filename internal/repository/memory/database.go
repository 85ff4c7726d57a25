// Package memory is a go-memdb backed implementation of repository.Repository
// used for tests and for running the service without PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DefaultTypes is the catalog seeded by New, matching the SQL migration.
var DefaultTypes = []model.DocumentType{
	{ID: 1, Description: "Contrato"},
	{ID: 2, Description: "Factura"},
	{ID: 3, Description: "Informe"},
	{ID: 4, Description: "Acta"},
	{ID: 5, Description: "Otro"},
}

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db  *memdb.MemDB
	seq atomic.Uint64
	now func() time.Time
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *DB) { d.now = now }
}

var _ repository.Repository = (*DB)(nil)

// New returns a new in-memory database seeded with DefaultTypes.
func New(opts ...Option) (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	d := &DB{db: memDB, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}

	for _, t := range DefaultTypes {
		if err := d.PutType(t); err != nil {
			return nil, err
		}
	}
	return d, nil
}

type documentRecord struct {
	model.Document
	Seq uint64
}

type versionRecord struct {
	model.DocumentVersion
	Seq uint64
}

type shareRecord struct {
	model.Share
	Seq uint64
}

type notificationRecord struct {
	model.Notification
	Seq uint64
}

type auditRecord struct {
	model.AuditRecord
	// DocumentKey mirrors DocumentID for indexing; empty when nil.
	DocumentKey string
	Seq         uint64
}

// PingContext always succeeds; it lets the health check treat both stores alike.
func (d *DB) PingContext(context.Context) error { return nil }

func (d *DB) nextSeq() uint64 {
	return d.seq.Add(1)
}

func (d *DB) timestamp() time.Time {
	return d.now().UTC()
}

// PutUser inserts or replaces a user.
func (d *DB) PutUser(u model.User) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tblUsers, &u); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	txn.Commit()
	return nil
}

// PutType inserts or replaces a document type.
func (d *DB) PutType(t model.DocumentType) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tblTypes, &t); err != nil {
		return fmt.Errorf("insert document type: %w", err)
	}
	txn.Commit()
	return nil
}

func exists(txn *memdb.Txn, table string, id any) (bool, error) {
	raw, err := txn.First(table, "id", id)
	if err != nil {
		return false, fmt.Errorf("find %s: %w", table, err)
	}
	return raw != nil, nil
}

func findDocument(txn *memdb.Txn, id string) (*documentRecord, error) {
	raw, err := txn.First(tblDocuments, "id", id)
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	return raw.(*documentRecord), nil
}

// CreateDocument inserts a new document; owner and type must exist.
func (d *DB) CreateDocument(_ context.Context, doc model.NewDocument, location string) (*model.Document, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	for table, id := range map[string]int64{tblUsers: doc.OwnerUserID, tblTypes: doc.TypeID} {
		ok, err := exists(txn, table, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, repository.ErrNotFound
		}
	}

	rec := &documentRecord{
		Document: model.Document{
			ID:              uuid.NewString(),
			Title:           doc.Title,
			Description:     doc.Description,
			ContentLocation: location,
			CreatedAt:       d.timestamp(),
			OwnerUserID:     doc.OwnerUserID,
			TypeID:          doc.TypeID,
		},
		Seq: d.nextSeq(),
	}
	if err := txn.Insert(tblDocuments, rec); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	txn.Commit()

	out := rec.Document
	return &out, nil
}

// GetDocument returns a document by its ID.
func (d *DB) GetDocument(_ context.Context, id string) (*model.Document, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	rec, err := findDocument(txn, id)
	if err != nil {
		return nil, err
	}
	out := rec.Document
	return &out, nil
}

func listItem(txn *memdb.Txn, doc model.Document) (model.DocumentListItem, error) {
	item := model.DocumentListItem{Document: doc}
	raw, err := txn.First(tblUsers, "id", doc.OwnerUserID)
	if err != nil {
		return item, fmt.Errorf("find user: %w", err)
	}
	if raw != nil {
		item.OwnerEmail = raw.(*model.User).Email
	}
	raw, err = txn.First(tblTypes, "id", doc.TypeID)
	if err != nil {
		return item, fmt.Errorf("find document type: %w", err)
	}
	if raw != nil {
		item.TypeLabel = raw.(*model.DocumentType).Description
	}
	return item, nil
}

// GetDocumentListItem returns a document joined with owner email and type label.
func (d *DB) GetDocumentListItem(_ context.Context, id string) (*model.DocumentListItem, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	rec, err := findDocument(txn, id)
	if err != nil {
		return nil, err
	}
	item, err := listItem(txn, rec.Document)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindDocumentByLocation returns the document whose current content is at location.
func (d *DB) FindDocumentByLocation(_ context.Context, location string) (*model.Document, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "content_location", location)
	if err != nil {
		return nil, fmt.Errorf("find document by location: %w", err)
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	out := raw.(*documentRecord).Document
	return &out, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func matches(item model.DocumentListItem, f model.ListFilter) bool {
	if f.TitleContains != "" && !containsFold(item.Title, f.TitleContains) {
		return false
	}
	if f.OwnerEmailContains != "" && !containsFold(item.OwnerEmail, f.OwnerEmailContains) {
		return false
	}
	if f.TypeID != nil && item.TypeID != *f.TypeID {
		return false
	}
	if r := f.CreatedBetween; r != nil && (item.CreatedAt.Before(r.From) || item.CreatedAt.After(r.To)) {
		return false
	}
	return true
}

// ListDocuments returns documents matching every set field of the filter, newest first.
func (d *DB) ListDocuments(_ context.Context, filter model.ListFilter) ([]model.DocumentListItem, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblDocuments, "id")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var recs []*documentRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		recs = append(recs, raw.(*documentRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq > recs[j].Seq })

	items := make([]model.DocumentListItem, 0, len(recs))
	for _, rec := range recs {
		item, err := listItem(txn, rec.Document)
		if err != nil {
			return nil, err
		}
		if matches(item, filter) {
			items = append(items, item)
		}
	}
	return items, nil
}

// ReplaceContent swaps the content location inside a single write transaction.
func (d *DB) ReplaceContent(_ context.Context, id string, rep model.ContentReplacement) (*model.Document, string, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	rec, err := findDocument(txn, id)
	if err != nil {
		return nil, "", err
	}
	if rep.TypeID != nil {
		ok, err := exists(txn, tblTypes, *rep.TypeID)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			return nil, "", repository.ErrNotFound
		}
	}

	updated := *rec
	previous := rec.ContentLocation
	now := d.timestamp()
	updated.ContentLocation = rep.Location
	updated.ModifiedAt = &now
	if rep.Title != nil {
		updated.Title = *rep.Title
	}
	if rep.Description != nil {
		updated.Description = *rep.Description
	}
	if rep.TypeID != nil {
		updated.TypeID = *rep.TypeID
	}

	if err := txn.Insert(tblDocuments, &updated); err != nil {
		return nil, "", fmt.Errorf("update document: %w", err)
	}
	txn.Commit()

	out := updated.Document
	return &out, previous, nil
}

// DeleteDocument removes the document together with its versions, shares and
// notifications. Audit records are left in place.
func (d *DB) DeleteDocument(_ context.Context, id string) (*repository.DeletedDocument, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	rec, err := findDocument(txn, id)
	if err != nil {
		return nil, err
	}

	versions, err := versionsOf(txn, id)
	if err != nil {
		return nil, err
	}

	for _, table := range []string{tblVersions, tblShares, tblNotifications} {
		if _, err := txn.DeleteAll(table, "document_id", id); err != nil {
			return nil, fmt.Errorf("delete %s: %w", table, err)
		}
	}
	if err := txn.Delete(tblDocuments, rec); err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}
	txn.Commit()

	return &repository.DeletedDocument{Document: rec.Document, Versions: versions}, nil
}

// IncrementDownloadCount bumps the counter and stamps the download time.
func (d *DB) IncrementDownloadCount(_ context.Context, id string, at time.Time) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	rec, err := findDocument(txn, id)
	if err != nil {
		return err
	}
	updated := *rec
	updated.DownloadCount++
	updated.LastDownloadedAt = &at

	if err := txn.Insert(tblDocuments, &updated); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	txn.Commit()
	return nil
}

// ListTypes returns the document type catalog ordered by id.
func (d *DB) ListTypes(_ context.Context) ([]model.DocumentType, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblTypes, "id")
	if err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}

	types := make([]model.DocumentType, 0)
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		types = append(types, *raw.(*model.DocumentType))
	}
	return types, nil
}
