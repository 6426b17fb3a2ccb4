package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when a URL cannot be parsed or lacks a scheme or host.
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidInput signals a broken internal contract (e.g. a truncated hash).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned for unknown bookmark ids, short codes or tags.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is wrapped by DuplicateError.
	ErrDuplicate = errors.New("bookmark already exists")

	// ErrTagExists is returned by TagRepository.CreateTag when another writer
	// created the same tag name first.
	ErrTagExists = errors.New("tag already exists")

	// ErrShortCodeCollision is returned when two different hashes share the
	// same short code.
	ErrShortCodeCollision = errors.New("short code already used by another url")
)

// DuplicateError is returned by create paths when a bookmark with the same
// hash already exists. Existing is the stored bookmark.
type DuplicateError struct {
	Existing *Bookmark
}

func (e *DuplicateError) Error() string {
	if e.Existing == nil {
		return ErrDuplicate.Error()
	}
	return fmt.Sprintf("%s: id=%s short_code=%s", ErrDuplicate, e.Existing.ID, e.Existing.ShortCode)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// AsDuplicate returns the DuplicateError in err's chain, if any.
func AsDuplicate(err error) (*DuplicateError, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
