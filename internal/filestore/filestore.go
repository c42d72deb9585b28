// Package filestore stores uploaded audio blobs under a per-user namespace.
package filestore

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Store is the capability set the session manager depends on. Paths returned
// by Save are opaque to callers and always scoped to the given user.
type Store interface {
	// Save persists data under the user's namespace and returns the stored path.
	Save(ctx context.Context, userID, name string, data []byte) (string, error)

	// Retrieve returns the stored bytes or domain.ErrFileNotFound.
	Retrieve(ctx context.Context, path string) ([]byte, error)

	// Remove deletes the blob. Removing an already-missing blob is a no-op.
	Remove(ctx context.Context, path string) error

	// SecureRemove overwrites the blob before deletion where the backend
	// supports it, then removes it. Also idempotent.
	SecureRemove(ctx context.Context, path string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFileName strips directory separators, traversal sequences and any
// character outside a conservative allow-list.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ".")
	if name == "" {
		name = "upload"
	}
	return name
}

// ObjectName builds the deterministic stored filename so a repeated save for
// the same session overwrites rather than duplicates.
func ObjectName(sessionID, originalName string) string {
	return fmt.Sprintf("%s_%s", sessionID, SanitizeFileName(originalName))
}
