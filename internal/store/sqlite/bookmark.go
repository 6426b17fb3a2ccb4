package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
)

const bookmarkColumns = "b.id, b.url, b.hash_url, b.short_code, b.title, b.notes, b.archived, b.created_at, b.updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (*domain.Bookmark, error) {
	var (
		b                  domain.Bookmark
		createdAt, updated int64
	)
	if err := row.Scan(&b.ID, &b.URL, &b.HashURL, &b.ShortCode, &b.Title, &b.Notes,
		&b.Archived, &createdAt, &updated); err != nil {
		return nil, err
	}
	b.CreatedAt = time.Unix(0, createdAt).UTC()
	b.UpdatedAt = time.Unix(0, updated).UTC()
	b.Tags = []domain.Tag{}
	return &b, nil
}

// getBy loads one bookmark (with tags) where column = value.
func getBy(ctx context.Context, q queryer, column, value string) (*domain.Bookmark, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+bookmarkColumns+" FROM bookmarks b WHERE b."+column+" = ?", value)
	b, err := scanBookmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark by %s: %w", column, err)
	}
	if err := loadTags(ctx, q, []*domain.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// loadTags fills the Tags of each bookmark with a single query.
func loadTags(ctx context.Context, q queryer, bookmarks []*domain.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Bookmark, len(bookmarks))
	args := make([]any, 0, len(bookmarks))
	for _, b := range bookmarks {
		byID[b.ID] = b
		args = append(args, b.ID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT bt.bookmark_id, t.id, t.name
		FROM bookmark_tags bt
		JOIN tags t ON t.id = bt.tag_id
		WHERE bt.bookmark_id IN (`+placeholders(len(args))+`)
		ORDER BY t.name`, args...)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookmarkID string
		var t domain.Tag
		if err := rows.Scan(&bookmarkID, &t.ID, &t.Name); err != nil {
			return fmt.Errorf("scan bookmark tag: %w", err)
		}
		if b, ok := byID[bookmarkID]; ok {
			b.Tags = append(b.Tags, t)
		}
	}
	return rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Get returns a bookmark by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Bookmark, error) {
	return getBy(ctx, s.db, "id", id)
}

// FindByHash returns the bookmark with the given URL hash, or domain.ErrNotFound.
func (s *Store) FindByHash(ctx context.Context, hash string) (*domain.Bookmark, error) {
	return getBy(ctx, s.db, "hash_url", hash)
}

// Create stores a new bookmark for an already normalized URL.
//
// It fails with *domain.DuplicateError when a bookmark with the same hash
// exists, whether detected by the lookup or by the unique constraint.
func (s *Store) Create(ctx context.Context, nb domain.NewBookmark) (*domain.Bookmark, error) {
	hash, code, err := domain.Fingerprint(nb.URL)
	if err != nil {
		return nil, err
	}

	existing, err := s.FindByHash(ctx, hash)
	if err == nil {
		return nil, &domain.DuplicateError{Existing: existing}
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.timestamp()
	b := &domain.Bookmark{
		ID:        s.newID(),
		URL:       nb.URL,
		HashURL:   hash,
		ShortCode: code,
		Title:     nb.Title,
		Notes:     nb.Notes,
		Archived:  nb.Archived,
		CreatedAt: time.Unix(0, now).UTC(),
		UpdatedAt: time.Unix(0, now).UTC(),
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bookmarks (id, url, hash_url, short_code, title, notes, archived, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.URL, b.HashURL, b.ShortCode, b.Title, b.Notes, b.Archived, now, now,
		)
		if err != nil {
			return err
		}

		tags, err := s.reconcileAndLink(ctx, tx, b.ID, nb.Tags)
		if err != nil {
			return err
		}
		b.Tags = tags
		return nil
	})

	switch {
	case err == nil:
		return b, nil
	case isUniqueViolation(err, "bookmarks.hash_url"):
		// Lost the race against a concurrent create of the same URL.
		existing, findErr := s.FindByHash(ctx, hash)
		if findErr != nil {
			return nil, fmt.Errorf("load existing bookmark after conflict: %w", findErr)
		}
		return nil, &domain.DuplicateError{Existing: existing}
	case isUniqueViolation(err, "bookmarks.short_code"):
		return nil, fmt.Errorf("%w: %s", domain.ErrShortCodeCollision, code)
	default:
		return nil, fmt.Errorf("insert bookmark: %w", err)
	}
}

// Update applies a patch. url, hash and short code are never modified.
func (s *Store) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Bookmark, error) {
	var updated *domain.Bookmark
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBy(ctx, tx, "id", id)
		if err != nil {
			return err
		}

		if patch.Title != nil {
			b.Title = *patch.Title
		}
		if patch.Notes != nil {
			b.Notes = *patch.Notes
		}
		if patch.Archived != nil {
			b.Archived = *patch.Archived
		}

		now := s.timestamp()
		if _, err := tx.ExecContext(ctx,
			"UPDATE bookmarks SET title = ?, notes = ?, archived = ?, updated_at = ? WHERE id = ?",
			b.Title, b.Notes, b.Archived, now, id,
		); err != nil {
			return fmt.Errorf("update bookmark: %w", err)
		}
		b.UpdatedAt = time.Unix(0, now).UTC()

		if patch.Tags != nil {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM bookmark_tags WHERE bookmark_id = ?", id,
			); err != nil {
				return fmt.Errorf("clear tags: %w", err)
			}
			tags, err := s.reconcileAndLink(ctx, tx, id, *patch.Tags)
			if err != nil {
				return err
			}
			b.Tags = tags
		}

		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleArchive flips the archived flag.
func (s *Store) ToggleArchive(ctx context.Context, id string) (*domain.Bookmark, error) {
	var b *domain.Bookmark
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE bookmarks SET archived = NOT archived, updated_at = ? WHERE id = ?",
			s.timestamp(), id,
		)
		if err := affectedOne(res, err, "toggle archive"); err != nil {
			return err
		}
		b, err = getBy(ctx, tx, "id", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a bookmark and its tag links. Tags are kept.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM bookmark_tags WHERE bookmark_id = ?", id,
		); err != nil {
			return fmt.Errorf("delete bookmark tags: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM bookmarks WHERE id = ?", id)
		return affectedOne(res, err, "delete bookmark")
	})
}

// FindByShortCode returns the bookmark for a redirect code and records the
// visit by refreshing UpdatedAt.
func (s *Store) FindByShortCode(ctx context.Context, code string) (*domain.Bookmark, error) {
	var b *domain.Bookmark
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE bookmarks SET updated_at = ? WHERE short_code = ?",
			s.timestamp(), code,
		)
		if err := affectedOne(res, err, "touch bookmark"); err != nil {
			return err
		}
		b, err = getBy(ctx, tx, "short_code", code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Touch refreshes UpdatedAt of a bookmark (redirect served from cache).
func (s *Store) Touch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bookmarks SET updated_at = ? WHERE id = ?", s.timestamp(), id,
	)
	return affectedOne(res, err, "touch bookmark")
}

func affectedOne(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns one page of bookmarks matching filter, newest first, and the
// total number of matches.
func (s *Store) List(ctx context.Context, filter domain.Filter, page, perPage int) ([]*domain.Bookmark, int, error) {
	if page < 1 || perPage < 1 {
		return nil, 0, fmt.Errorf("%w: page=%d per_page=%d", domain.ErrInvalidInput, page, perPage)
	}

	where, args := buildWhere(filter)

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookmarks b"+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookmarks: %w", err)
	}

	// An offset past math.MaxInt would wrap negative and SQLite would serve page 1.
	if page-1 > math.MaxInt/perPage {
		return []*domain.Bookmark{}, total, nil
	}

	pageArgs := append(append([]any{}, args...), perPage, (page-1)*perPage)
	items, err := s.query(ctx,
		"SELECT "+bookmarkColumns+" FROM bookmarks b"+where+
			" ORDER BY b.created_at DESC, b.id DESC LIMIT ? OFFSET ?",
		pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every bookmark, newest first.
func (s *Store) ListAll(ctx context.Context) ([]*domain.Bookmark, error) {
	return s.query(ctx,
		"SELECT "+bookmarkColumns+" FROM bookmarks b ORDER BY b.created_at DESC, b.id DESC")
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	items := []*domain.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	if err := loadTags(ctx, s.db, items); err != nil {
		return nil, err
	}
	return items, nil
}

func buildWhere(filter domain.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if tag := domain.NormalizeTagName(filter.Tag); tag != "" {
		clauses = append(clauses, `EXISTS (
			SELECT 1 FROM bookmark_tags bt JOIN tags t ON t.id = bt.tag_id
			WHERE bt.bookmark_id = b.id AND t.name = ?)`)
		args = append(args, tag)
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		clauses = append(clauses,
			`(lower(b.url) LIKE ? ESCAPE '\' OR lower(b.title) LIKE ? ESCAPE '\' OR lower(b.notes) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	if filter.Archived != nil {
		clauses = append(clauses, "b.archived = ?")
		args = append(args, *filter.Archived)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
