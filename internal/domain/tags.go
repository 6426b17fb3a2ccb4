package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TagRepository is the persistence side of tag reconciliation.
type TagRepository interface {
	// FindTagByName returns ErrNotFound when no tag has that exact name.
	FindTagByName(ctx context.Context, name string) (*Tag, error)
	// CreateTag returns ErrTagExists when the name is already taken.
	CreateTag(ctx context.Context, name string) (*Tag, error)
}

// NormalizeTagName trims and lower-cases a raw tag.
func NormalizeTagName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeTagNames normalizes raw tags, drops empty ones and removes
// duplicates. First-seen order is kept.
func NormalizeTagNames(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for _, r := range raw {
		name := NormalizeTagName(r)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// ReconcileTags maps raw tag names to persisted tags, creating missing ones.
//
// Each distinct name is created at most once. When CreateTag loses a race
// against a concurrent writer (ErrTagExists), the existing tag is fetched
// and used instead.
func ReconcileTags(ctx context.Context, raw []string, repo TagRepository) ([]Tag, error) {
	names := NormalizeTagNames(raw)
	tags := make([]Tag, 0, len(names))

	for _, name := range names {
		tag, err := findOrCreateTag(ctx, repo, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}

	return tags, nil
}

func findOrCreateTag(ctx context.Context, repo TagRepository, name string) (*Tag, error) {
	tag, err := repo.FindTagByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find tag %q: %w", name, err)
	}

	tag, err = repo.CreateTag(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, ErrTagExists) {
		return nil, fmt.Errorf("create tag %q: %w", name, err)
	}

	tag, err = repo.FindTagByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("refetch tag %q after conflict: %w", name, err)
	}
	return tag, nil
}
