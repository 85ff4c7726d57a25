package repository

import "errors"

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, memory) inside this directory.

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// Repository is the full set of stores the document lifecycle depends on.
type Repository interface {
	DocumentRepository
	VersionRepository
	ShareRepository
	NotificationRepository
	AuditRepository
}
