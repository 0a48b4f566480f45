// Package store defines the named documents the client persists and the
// capability both persistence backends provide. The remote backend lives in
// internal/github; the local backend used in demo mode lives here.
package store

import (
	"context"
	"errors"
	"fmt"
)

// DocType is the logical name of a persisted document.
type DocType string

// The three documents. Each is always persisted whole.
const (
	DocProfile    DocType = "profile"
	DocSessions   DocType = "sessions"
	DocSuspension DocType = "suspension"
)

// ErrUnknownType is returned for a DocType outside the fixed set.
var ErrUnknownType = errors.New("store: unknown document type")

// ErrCorrupt marks stored content that exists but cannot be decoded. Both
// backends wrap it, so errors.Is(err, store.ErrCorrupt) distinguishes
// "document exists but is unreadable" from "no such document yet".
var ErrCorrupt = errors.New("store: stored document is corrupt")

// paths maps each document to its fixed location in the repository.
var paths = map[DocType]string{
	DocProfile:    "data/profile.json",
	DocSessions:   "data/sessions.json",
	DocSuspension: "data/suspension.json",
}

// Types returns all document types in a stable order.
func Types() []DocType {
	return []DocType{DocProfile, DocSessions, DocSuspension}
}

// Path returns the repository path for t.
func (t DocType) Path() (string, error) {
	p, ok := paths[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}

	return p, nil
}

// ParseDocType converts a user-supplied name into a DocType.
func ParseDocType(s string) (DocType, error) {
	t := DocType(s)
	if _, err := t.Path(); err != nil {
		return "", err
	}

	return t, nil
}

// DocumentStore persists whole documents by type. LoadDocument decodes the
// stored JSON into out and reports false, with no error, when the document
// has never been saved.
type DocumentStore interface {
	SaveDocument(ctx context.Context, t DocType, value any) error
	LoadDocument(ctx context.Context, t DocType, out any) (bool, error)
}
