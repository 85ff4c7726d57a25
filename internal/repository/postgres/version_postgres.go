package postgres

import (
	"context"
	"database/sql"

	"docvault/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const versionColumns = `id, document_id, blob_location, created_at`

func scanVersion(row rowScanner) (*model.DocumentVersion, error) {
	var v model.DocumentVersion
	if err := row.Scan(&v.ID, &v.DocumentID, &v.BlobLocation, &v.CreatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

// AddVersion archives location as a version of documentID.
func (r *DocumentPostgres) AddVersion(ctx context.Context, documentID, location string) (*model.DocumentVersion, error) {
	const q = `
		INSERT INTO document_versions (document_id, blob_location)
		VALUES ($1, $2)
		RETURNING ` + versionColumns
	v, err := scanVersion(r.db.QueryRowContext(ctx, q, documentID, location))
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

// GetVersion fetches a single version by its ID.
func (r *DocumentPostgres) GetVersion(ctx context.Context, versionID string) (*model.DocumentVersion, error) {
	const q = `SELECT ` + versionColumns + ` FROM document_versions WHERE id = $1`
	v, err := scanVersion(r.db.QueryRowContext(ctx, q, versionID))
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

// ListVersions returns the versions of a document, oldest first.
func (r *DocumentPostgres) ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	versions, err := listVersions(ctx, r.db, documentID)
	if IsPgInvalidTextError(err) {
		return []model.DocumentVersion{}, nil
	}
	return versions, err
}

// DeleteVersion removes a version row and returns it.
func (r *DocumentPostgres) DeleteVersion(ctx context.Context, versionID string) (*model.DocumentVersion, error) {
	const q = `DELETE FROM document_versions WHERE id = $1 RETURNING ` + versionColumns
	v, err := scanVersion(r.db.QueryRowContext(ctx, q, versionID))
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

func listVersions(ctx context.Context, q querier, documentID string) ([]model.DocumentVersion, error) {
	const stmt = `
		SELECT ` + versionColumns + `
		FROM document_versions
		WHERE document_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := q.QueryContext(ctx, stmt, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]model.DocumentVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}
