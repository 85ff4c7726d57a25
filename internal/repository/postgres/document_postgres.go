package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.Repository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.Repository = (*DocumentPostgres)(nil)

const documentColumns = `d.id, d.title, d.description, d.content_location, d.created_at,
		d.modified_at, d.owner_user_id, d.type_id, d.download_count, d.last_downloaded_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, extra ...any) (*model.Document, error) {
	var (
		d            model.Document
		modified     sql.NullTime
		lastDownload sql.NullTime
	)
	dest := []any{
		&d.ID,
		&d.Title,
		&d.Description,
		&d.ContentLocation,
		&d.CreatedAt,
		&modified,
		&d.OwnerUserID,
		&d.TypeID,
		&d.DownloadCount,
		&lastDownload,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if modified.Valid {
		t := modified.Time
		d.ModifiedAt = &t
	}
	if lastDownload.Valid {
		t := lastDownload.Time
		d.LastDownloadedAt = &t
	}
	return &d, nil
}

// CreateDocument inserts a new document row and returns the stored record.
func (r *DocumentPostgres) CreateDocument(ctx context.Context, doc model.NewDocument, location string) (*model.Document, error) {
	const q = `
		INSERT INTO documents AS d (title, description, content_location, owner_user_id, type_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.Title,
		doc.Description,
		location,
		doc.OwnerUserID,
		doc.TypeID,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// GetDocument fetches a single document by its ID.
func (r *DocumentPostgres) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents d WHERE d.id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

const listItemQuery = `
		SELECT ` + documentColumns + `, u.email, t.description
		FROM documents d
		JOIN users u ON u.id = d.owner_user_id
		JOIN document_types t ON t.id = d.type_id`

func scanListItem(row rowScanner) (*model.DocumentListItem, error) {
	var item model.DocumentListItem
	d, err := scanDocument(row, &item.OwnerEmail, &item.TypeLabel)
	if err != nil {
		return nil, err
	}
	item.Document = *d
	return &item, nil
}

// GetDocumentListItem fetches a document joined with owner email and type label.
func (r *DocumentPostgres) GetDocumentListItem(ctx context.Context, id string) (*model.DocumentListItem, error) {
	item, err := scanListItem(r.db.QueryRowContext(ctx, listItemQuery+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return item, nil
}

// FindDocumentByLocation fetches the document whose current content is at location.
func (r *DocumentPostgres) FindDocumentByLocation(ctx context.Context, location string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents d WHERE d.content_location = $1 LIMIT 1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, location))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

// ListDocuments returns documents matching every set field of the filter, newest first.
func (r *DocumentPostgres) ListDocuments(ctx context.Context, filter model.ListFilter) ([]model.DocumentListItem, error) {
	q, args := buildListQuery(filter)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentListItem, 0)
	for rows.Next() {
		item, err := scanListItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func buildListQuery(filter model.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.TitleContains != "" {
		add(`d.title ILIKE '%%' || $%d || '%%'`, escapeLike(filter.TitleContains))
	}
	if filter.OwnerEmailContains != "" {
		add(`u.email ILIKE '%%' || $%d || '%%'`, escapeLike(filter.OwnerEmailContains))
	}
	if filter.TypeID != nil {
		add(`d.type_id = $%d`, *filter.TypeID)
	}
	if filter.CreatedBetween != nil {
		add(`d.created_at >= $%d`, filter.CreatedBetween.From)
		add(`d.created_at <= $%d`, filter.CreatedBetween.To)
	}

	q := listItemQuery
	if len(conds) > 0 {
		q += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	q += "\n\t\tORDER BY d.created_at DESC, d.id DESC"
	return q, args
}

// escapeLike makes user input match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ReplaceContent swaps the content location in a single statement, so the
// returned previous location is the one this statement overwrote.
func (r *DocumentPostgres) ReplaceContent(ctx context.Context, id string, rep model.ContentReplacement) (*model.Document, string, error) {
	const q = `
		WITH prev AS (
			SELECT id, content_location FROM documents WHERE id = $1 FOR UPDATE
		)
		UPDATE documents d SET
			content_location = $2,
			modified_at      = now(),
			title            = COALESCE($3, d.title),
			description      = COALESCE($4, d.description),
			type_id          = COALESCE($5, d.type_id)
		FROM prev
		WHERE d.id = prev.id
		RETURNING ` + documentColumns + `, prev.content_location`

	var previous string
	d, err := scanDocument(
		r.db.QueryRowContext(ctx, q, id, rep.Location, rep.Title, rep.Description, rep.TypeID),
		&previous,
	)
	if err != nil {
		return nil, "", mapError(err)
	}
	return d, previous, nil
}

// DeleteDocument removes the document and returns it with the versions the
// cascade dropped, so the caller can purge their blobs.
func (r *DocumentPostgres) DeleteDocument(ctx context.Context, id string) (*repository.DeletedDocument, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	versions, err := listVersions(ctx, tx, id)
	if err != nil {
		return nil, mapError(err)
	}

	const q = `DELETE FROM documents d WHERE d.id = $1 RETURNING ` + documentColumns
	d, err := scanDocument(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &repository.DeletedDocument{Document: *d, Versions: versions}, nil
}

// IncrementDownloadCount bumps the counter and stamps the download time.
func (r *DocumentPostgres) IncrementDownloadCount(ctx context.Context, id string, at time.Time) error {
	const q = `
		UPDATE documents
		SET download_count = download_count + 1, last_downloaded_at = $2
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListTypes returns the document type catalog ordered by id.
func (r *DocumentPostgres) ListTypes(ctx context.Context) ([]model.DocumentType, error) {
	const q = `SELECT id, description FROM document_types ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]model.DocumentType, 0)
	for rows.Next() {
		var t model.DocumentType
		if err := rows.Scan(&t.ID, &t.Description); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
