package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"docvault/internal/model"
	"docvault/internal/repository"
)

func versionsOf(txn *memdb.Txn, documentID string) ([]model.DocumentVersion, error) {
	iter, err := txn.Get(tblVersions, "document_id", documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	var recs []*versionRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		recs = append(recs, raw.(*versionRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	versions := make([]model.DocumentVersion, 0, len(recs))
	for _, rec := range recs {
		versions = append(versions, rec.DocumentVersion)
	}
	return versions, nil
}

// AddVersion archives location as a version of documentID.
func (d *DB) AddVersion(_ context.Context, documentID, location string) (*model.DocumentVersion, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if _, err := findDocument(txn, documentID); err != nil {
		return nil, err
	}

	rec := &versionRecord{
		DocumentVersion: model.DocumentVersion{
			ID:           uuid.NewString(),
			DocumentID:   documentID,
			BlobLocation: location,
			CreatedAt:    d.timestamp(),
		},
		Seq: d.nextSeq(),
	}
	if err := txn.Insert(tblVersions, rec); err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}
	txn.Commit()

	out := rec.DocumentVersion
	return &out, nil
}

// GetVersion returns a single version by its ID.
func (d *DB) GetVersion(_ context.Context, versionID string) (*model.DocumentVersion, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblVersions, "id", versionID)
	if err != nil {
		return nil, fmt.Errorf("find version: %w", err)
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	out := raw.(*versionRecord).DocumentVersion
	return &out, nil
}

// ListVersions returns the versions of a document, oldest first.
func (d *DB) ListVersions(_ context.Context, documentID string) ([]model.DocumentVersion, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	return versionsOf(txn, documentID)
}

// DeleteVersion removes a version and returns it.
func (d *DB) DeleteVersion(_ context.Context, versionID string) (*model.DocumentVersion, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblVersions, "id", versionID)
	if err != nil {
		return nil, fmt.Errorf("find version: %w", err)
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	if err := txn.Delete(tblVersions, raw); err != nil {
		return nil, fmt.Errorf("delete version: %w", err)
	}
	txn.Commit()

	out := raw.(*versionRecord).DocumentVersion
	return &out, nil
}

// CreateShare records a share; the document and both users must exist.
func (d *DB) CreateShare(_ context.Context, documentID string, senderID, recipientID int64, permissions string) (*model.Share, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if _, err := findDocument(txn, documentID); err != nil {
		return nil, err
	}
	for _, id := range []int64{senderID, recipientID} {
		ok, err := exists(txn, tblUsers, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, repository.ErrNotFound
		}
	}

	rec := &shareRecord{
		Share: model.Share{
			ID:              uuid.NewString(),
			DocumentID:      documentID,
			SenderUserID:    senderID,
			RecipientUserID: recipientID,
			Permissions:     permissions,
			SentAt:          d.timestamp(),
		},
		Seq: d.nextSeq(),
	}
	if err := txn.Insert(tblShares, rec); err != nil {
		return nil, fmt.Errorf("insert share: %w", err)
	}
	txn.Commit()

	out := rec.Share
	return &out, nil
}

// ListShares returns the share history of a document, oldest first.
func (d *DB) ListShares(_ context.Context, documentID string) ([]model.Share, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblShares, "document_id", documentID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}

	var recs []*shareRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		recs = append(recs, raw.(*shareRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	shares := make([]model.Share, 0, len(recs))
	for _, rec := range recs {
		shares = append(shares, rec.Share)
	}
	return shares, nil
}

// CreateNotification persists a notification for userID.
func (d *DB) CreateNotification(_ context.Context, userID int64, title, message, documentID string) (*model.Notification, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	if _, err := findDocument(txn, documentID); err != nil {
		return nil, err
	}
	ok, err := exists(txn, tblUsers, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	rec := &notificationRecord{
		Notification: model.Notification{
			ID:         uuid.NewString(),
			UserID:     userID,
			Title:      title,
			Message:    message,
			DocumentID: documentID,
			CreatedAt:  d.timestamp(),
		},
		Seq: d.nextSeq(),
	}
	if err := txn.Insert(tblNotifications, rec); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	txn.Commit()

	out := rec.Notification
	return &out, nil
}

// ListNotifications returns the notifications of userID, newest first.
func (d *DB) ListNotifications(_ context.Context, userID int64) ([]model.Notification, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblNotifications, "user_id", userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	var recs []*notificationRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		recs = append(recs, raw.(*notificationRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq > recs[j].Seq })

	out := make([]model.Notification, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Notification)
	}
	return out, nil
}

// DeleteNotification deletes the row only when it belongs to ownerUserID.
func (d *DB) DeleteNotification(_ context.Context, id string, ownerUserID int64) (*model.Notification, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblNotifications, "id", id)
	if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}
	if raw == nil || raw.(*notificationRecord).UserID != ownerUserID {
		return nil, repository.ErrNotFound
	}
	if err := txn.Delete(tblNotifications, raw); err != nil {
		return nil, fmt.Errorf("delete notification: %w", err)
	}
	txn.Commit()

	out := raw.(*notificationRecord).Notification
	return &out, nil
}

// AppendAudit inserts an audit record. No existence check is made on the
// document so records can reference deleted documents.
func (d *DB) AppendAudit(_ context.Context, userID int64, documentID *string, action model.AuditAction, details string) (*model.AuditRecord, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	rec := &auditRecord{
		AuditRecord: model.AuditRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			Action:    action,
			Details:   details,
			Timestamp: d.timestamp(),
		},
		Seq: d.nextSeq(),
	}
	if documentID != nil {
		id := *documentID
		rec.DocumentID = &id
		rec.DocumentKey = id
	}
	if err := txn.Insert(tblAudit, rec); err != nil {
		return nil, fmt.Errorf("insert audit record: %w", err)
	}
	txn.Commit()

	out := rec.AuditRecord
	return &out, nil
}

// ListAudit returns audit records newest first, optionally for a single document.
func (d *DB) ListAudit(_ context.Context, documentID *string) ([]model.AuditRecord, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	var (
		iter memdb.ResultIterator
		err  error
	)
	if documentID != nil {
		iter, err = txn.Get(tblAudit, "document_id", *documentID)
	} else {
		iter, err = txn.Get(tblAudit, "id")
	}
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}

	var recs []*auditRecord
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		recs = append(recs, raw.(*auditRecord))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq > recs[j].Seq })

	out := make([]model.AuditRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.AuditRecord)
	}
	return out, nil
}
