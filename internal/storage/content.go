package storage

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"path"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType is served when nothing better is known.
const DefaultContentType = "application/octet-stream"

const sniffLen = 3072

// DetectContentType sniffs the head of r and returns the detected MIME type
// together with a reader that still yields the full content.
func DetectContentType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// ResolveContentType prefers the type reported by the backend, then the
// filename extension, then DefaultContentType.
func ResolveContentType(reported, filename string) string {
	if reported != "" {
		return reported
	}
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	return DefaultContentType
}
