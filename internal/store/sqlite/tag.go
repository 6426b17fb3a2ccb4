package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
)

// tagRepo implements domain.TagRepository on top of a db or tx.
type tagRepo struct {
	q     queryer
	newID func() string
}

func (r tagRepo) FindTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	var t domain.Tag
	err := r.q.QueryRowContext(ctx,
		"SELECT id, name FROM tags WHERE name = ?", name,
	).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return &t, nil
}

func (r tagRepo) CreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	t := &domain.Tag{ID: r.newID(), Name: name}
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO tags (id, name) VALUES (?, ?)", t.ID, t.Name,
	)
	if isUniqueViolation(err, "tags.name") {
		return nil, domain.ErrTagExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return t, nil
}

// ListTags returns every tag ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// reconcileAndLink resolves names to tags and links them to a bookmark.
func (s *Store) reconcileAndLink(ctx context.Context, tx *sql.Tx, bookmarkID string, names []string) ([]domain.Tag, error) {
	tags, err := domain.ReconcileTags(ctx, names, tagRepo{q: tx, newID: s.newID})
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO bookmark_tags (bookmark_id, tag_id) VALUES (?, ?)",
			bookmarkID, t.ID,
		); err != nil {
			return nil, fmt.Errorf("link tag %q: %w", t.Name, err)
		}
	}
	return tags, nil
}
