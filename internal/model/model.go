// Package model contains domain models shared by the repository, service and HTTP layers.
// Models carry no persistence tags; each store maps them explicitly.
package model

import "time"

// Share records that a document was sent from one user to another.
// Multiple shares for the same pair are kept as history.
type Share struct {
	ID              string    `json:"id"`
	DocumentID      string    `json:"document_id"`
	SenderUserID    int64     `json:"sender_user_id"`
	RecipientUserID int64     `json:"recipient_user_id"`
	Permissions     string    `json:"permissions"`
	SentAt          time.Time `json:"sent_at"`
}

// Notification is a message persisted for a user, created alongside a share.
type Notification struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditAction names an audited operation.
type AuditAction string

const (
	ActionAddDocument      AuditAction = "Agregar Documento"
	ActionUpdateDocument   AuditAction = "Actualizar Documento"
	ActionDownloadDocument AuditAction = "Descargar Documento"
	ActionDeleteDocument   AuditAction = "Eliminar Documento"
	ActionShareDocument    AuditAction = "Compartir Documento"
	ActionDeleteVersion    AuditAction = "Eliminar Versión"
)

// AuditRecord is an append-only entry of the audit trail.
// DocumentID is nil for actions not tied to a known document.
type AuditRecord struct {
	ID         string      `json:"id"`
	UserID     int64       `json:"user_id"`
	DocumentID *string     `json:"document_id,omitempty"`
	Action     AuditAction `json:"action"`
	Details    string      `json:"details"`
	Timestamp  time.Time   `json:"timestamp"`
}

// User is the minimal view of an account needed to resolve document owners.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
