package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound matches every *NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// Messages carried by NotFoundError.
const (
	MsgDocumentNotFound     = "document not found"
	MsgVersionNotFound      = "version not found"
	MsgVersionBlobNotFound  = "version blob not found"
	MsgNotificationNotFound = "notification not found"
	MsgFileNotFound         = "File not found"
	MsgRecipientNotFound    = "recipient not found"
	MsgReferenceNotFound    = "owner or document type not found"
	MsgTypeNotFound         = "document type not found"
)

// NotFoundError reports a missing document, version, notification or blob.
// Message is safe to return to clients.
type NotFoundError struct {
	Message string
}

func notFound(msg string) *NotFoundError {
	return &NotFoundError{Message: msg}
}

func (e *NotFoundError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrNotFound) true for any NotFoundError.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError lists field-level problems with the caller's input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// validation accumulates field errors; nil when nothing was added.
type validation map[string]string

func (v validation) check(ok bool, field, msg string) {
	if !ok {
		if _, exists := v[field]; !exists {
			v[field] = msg
		}
	}
}

func (v validation) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}

// UpstreamError wraps a blob store or database failure. Its detail is for
// logs only; clients get an opaque server error.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}
