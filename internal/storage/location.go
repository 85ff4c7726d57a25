package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Locator maps object keys to public content locations and back.
// A location is the base URL followed by the escaped key.
type Locator struct {
	base *url.URL
}

// NewLocator parses baseURL, which must be absolute.
func NewLocator(baseURL string) (Locator, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return Locator{}, fmt.Errorf("parse blob base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Locator{}, fmt.Errorf("blob base url must be absolute: %q", baseURL)
	}
	u.RawQuery, u.Fragment = "", ""
	return Locator{base: u}, nil
}

// Location returns the public location of key.
func (l Locator) Location(key string) string {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return l.base.String() + "/" + strings.Join(parts, "/")
}

// Key extracts the object key from location. Locations that do not belong
// to this store yield ErrNotFound.
func (l Locator) Key(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: invalid location", ErrNotFound)
	}
	if u.Scheme != l.base.Scheme || u.Host != l.base.Host {
		return "", fmt.Errorf("%w: location outside store", ErrNotFound)
	}

	prefix := l.base.EscapedPath() + "/"
	escaped := u.EscapedPath()
	if !strings.HasPrefix(escaped, prefix) || len(escaped) == len(prefix) {
		return "", fmt.Errorf("%w: location outside store", ErrNotFound)
	}

	parts := strings.Split(strings.TrimPrefix(escaped, prefix), "/")
	for i, p := range parts {
		s, err := url.PathUnescape(p)
		if err != nil {
			return "", fmt.Errorf("%w: invalid location", ErrNotFound)
		}
		parts[i] = s
	}
	return strings.Join(parts, "/"), nil
}

// FilenameFromLocation returns the last path segment of location, percent-decoded.
func FilenameFromLocation(location string) string {
	escaped := location
	if u, err := url.Parse(location); err == nil {
		escaped = u.EscapedPath()
	}
	last := escaped[strings.LastIndex(escaped, "/")+1:]
	if name, err := url.PathUnescape(last); err == nil {
		return name
	}
	return last
}

// ObjectKey builds a unique key "<prefix>/<uuid>/<filename>" for an upload.
func ObjectKey(prefix, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return uuid.NewString() + "/" + name
	}
	return prefix + "/" + uuid.NewString() + "/" + name
}
