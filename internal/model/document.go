package model

import "time"

// Document represents a stored file in the system.
// ContentLocation always points at the blob of the current version.
type Document struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ContentLocation  string     `json:"content_location"`
	CreatedAt        time.Time  `json:"created_at"`
	ModifiedAt       *time.Time `json:"modified_at,omitempty"`
	OwnerUserID      int64      `json:"owner_user_id"`
	TypeID           int64      `json:"type_id"`
	DownloadCount    int64      `json:"download_count"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at,omitempty"`
}

// DocumentListItem is a Document joined with its owner's email and type label.
type DocumentListItem struct {
	Document
	OwnerEmail string `json:"owner_email"`
	TypeLabel  string `json:"type_label"`
}

// DocumentVersion is an immutable snapshot of a superseded blob.
type DocumentVersion struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	BlobLocation string    `json:"blob_location"`
	CreatedAt    time.Time `json:"created_at"`
	// DownloadURL is a short-lived signed link, set only when signing is enabled.
	DownloadURL string `json:"download_url,omitempty"`
}

// DocumentDetail is the payload returned when fetching a single document.
type DocumentDetail struct {
	Document    DocumentListItem  `json:"document"`
	DownloadURL string            `json:"download_url,omitempty"`
	Versions    []DocumentVersion `json:"versions"`
	Shares      []Share           `json:"shares"`
}

// DocumentType is an entry of the document type catalog.
type DocumentType struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// NewDocument carries the caller-supplied metadata for a document being created.
type NewDocument struct {
	Title       string
	Description string
	OwnerUserID int64
	TypeID      int64
}

// ContentReplacement swaps the current blob of a document. Nil metadata
// fields leave the stored value untouched.
type ContentReplacement struct {
	Location    string
	Title       *string
	Description *string
	TypeID      *int64
}

// DateRange is an inclusive creation date window.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ListFilter narrows ListDocuments. Zero-valued fields are not applied.
type ListFilter struct {
	TitleContains      string
	OwnerEmailContains string
	TypeID             *int64
	CreatedBetween     *DateRange
}
