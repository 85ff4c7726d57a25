package postgres

import (
	"context"
	"database/sql"

	"docvault/internal/model"
)

const shareColumns = `id, document_id, sender_user_id, recipient_user_id, permissions, sent_at`

func scanShare(row rowScanner) (*model.Share, error) {
	var s model.Share
	if err := row.Scan(&s.ID, &s.DocumentID, &s.SenderUserID, &s.RecipientUserID, &s.Permissions, &s.SentAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateShare records a share. A missing document or user surfaces as
// repository.ErrNotFound through the foreign keys.
func (r *DocumentPostgres) CreateShare(ctx context.Context, documentID string, senderID, recipientID int64, permissions string) (*model.Share, error) {
	const q = `
		INSERT INTO document_shares (document_id, sender_user_id, recipient_user_id, permissions)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + shareColumns
	s, err := scanShare(r.db.QueryRowContext(ctx, q, documentID, senderID, recipientID, permissions))
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

// ListShares returns the share history of a document, oldest first.
func (r *DocumentPostgres) ListShares(ctx context.Context, documentID string) ([]model.Share, error) {
	const q = `SELECT ` + shareColumns + ` FROM document_shares WHERE document_id = $1 ORDER BY sent_at ASC, id ASC`
	shares := make([]model.Share, 0)
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if IsPgInvalidTextError(err) {
		return shares, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, *s)
	}
	return shares, rows.Err()
}

const notificationColumns = `id, user_id, title, message, document_id, created_at`

func scanNotification(row rowScanner) (*model.Notification, error) {
	var n model.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.DocumentID, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNotification persists a notification for userID.
func (r *DocumentPostgres) CreateNotification(ctx context.Context, userID int64, title, message, documentID string) (*model.Notification, error) {
	const q = `
		INSERT INTO notifications (user_id, title, message, document_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + notificationColumns
	n, err := scanNotification(r.db.QueryRowContext(ctx, q, userID, title, message, documentID))
	if err != nil {
		return nil, mapError(err)
	}
	return n, nil
}

// ListNotifications returns the notifications of userID, newest first.
func (r *DocumentPostgres) ListNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	const q = `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// DeleteNotification deletes the row only when it belongs to ownerUserID.
func (r *DocumentPostgres) DeleteNotification(ctx context.Context, id string, ownerUserID int64) (*model.Notification, error) {
	const q = `DELETE FROM notifications WHERE id = $1 AND user_id = $2 RETURNING ` + notificationColumns
	n, err := scanNotification(r.db.QueryRowContext(ctx, q, id, ownerUserID))
	if err != nil {
		return nil, mapError(err)
	}
	return n, nil
}

const auditColumns = `id, user_id, document_id, action, details, created_at`

func scanAudit(row rowScanner) (*model.AuditRecord, error) {
	var (
		a     model.AuditRecord
		docID sql.NullString
	)
	if err := row.Scan(&a.ID, &a.UserID, &docID, &a.Action, &a.Details, &a.Timestamp); err != nil {
		return nil, err
	}
	if docID.Valid {
		id := docID.String
		a.DocumentID = &id
	}
	return &a, nil
}

// AppendAudit inserts an audit record. The document id is stored without a
// foreign key so the record outlives the document.
func (r *DocumentPostgres) AppendAudit(ctx context.Context, userID int64, documentID *string, action model.AuditAction, details string) (*model.AuditRecord, error) {
	const q = `
		INSERT INTO audit_records (user_id, document_id, action, details)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + auditColumns
	return scanAudit(r.db.QueryRowContext(ctx, q, userID, documentID, string(action), details))
}

// ListAudit returns audit records newest first, optionally for a single document.
func (r *DocumentPostgres) ListAudit(ctx context.Context, documentID *string) ([]model.AuditRecord, error) {
	q := `SELECT ` + auditColumns + ` FROM audit_records`
	var args []any
	if documentID != nil {
		q += ` WHERE document_id = $1`
		args = append(args, *documentID)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	out := make([]model.AuditRecord, 0)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if IsPgInvalidTextError(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
