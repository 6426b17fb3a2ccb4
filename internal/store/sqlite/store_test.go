package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
)

// stepClock returns a time source that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "linkvault.db"),
		WithClock(stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreate(t *testing.T, s *Store, url string, tags ...string) *domain.Bookmark {
	t.Helper()
	b, err := s.Create(context.Background(), domain.NewBookmark{URL: url, Tags: tags})
	require.NoError(t, err)
	return b
}

func TestCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b, err := s.Create(ctx, domain.NewBookmark{
		URL:   "http://example.com/page",
		Title: "Example",
		Notes: "some notes",
		Tags:  []string{"News", "news", " "},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "http://example.com/page", b.URL)
	assert.Equal(t, "b2b930c1becd9bf779aec623d0a72653867d2146f97b942e5aa36f0a66197335", b.HashURL)
	assert.Equal(t, "srkwwb", b.ShortCode)
	assert.False(t, b.Archived)
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)
	require.Len(t, b.Tags, 1)
	assert.Equal(t, "news", b.Tags[0].Name)

	got, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.URL, got.URL)
	assert.Equal(t, "Example", got.Title)
	assert.Equal(t, "some notes", got.Notes)
	assert.Equal(t, []string{"news"}, got.TagNames())
	assert.True(t, b.CreatedAt.Equal(got.CreatedAt))
}

func TestCreateDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := mustCreate(t, s, "http://example.com/page")

	_, err := s.Create(ctx, domain.NewBookmark{URL: "http://example.com/page"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	dup, ok := domain.AsDuplicate(err)
	require.True(t, ok)
	assert.Equal(t, first.ID, dup.Existing.ID)

	_, total, err := s.List(ctx, domain.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCreateConcurrentSameURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const writers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		dupCount int
		other    []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, domain.NewBookmark{
				URL:  "https://race.example.com/",
				Tags: []string{"shared", "race"},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrDuplicate):
				dupCount++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, created)
	assert.Equal(t, writers-1, dupCount)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestConcurrentNewTagAcrossBookmarks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(ctx, domain.NewBookmark{
				URL:  fmt.Sprintf("https://example.com/%d", i),
				Tags: []string{"Fresh"},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "fresh", tags[0].Name)

	_, total, err := s.List(ctx, domain.Filter{Tag: "fresh"}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

func TestShortCodeCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreate(t, s, "https://one.example.com/")

	// Force another hash onto the same short code behind the store's back.
	_, err := s.db.ExecContext(ctx,
		"UPDATE bookmarks SET short_code = ? WHERE id = ?",
		"srkwwb", b.ID)
	require.NoError(t, err)

	_, err = s.Create(ctx, domain.NewBookmark{URL: "http://example.com/page"})
	assert.ErrorIs(t, err, domain.ErrShortCodeCollision)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreate(t, s, "https://example.com/a", "one", "two")

	title := "New title"
	tags := []string{"Three", "one"}
	updated, err := s.Update(ctx, b.ID, domain.Patch{Title: &title, Tags: &tags})
	require.NoError(t, err)

	assert.Equal(t, "New title", updated.Title)
	assert.ElementsMatch(t, []string{"three", "one"}, updated.TagNames())
	assert.True(t, updated.UpdatedAt.After(b.UpdatedAt))
	assert.Equal(t, b.URL, updated.URL)
	assert.Equal(t, b.HashURL, updated.HashURL)
	assert.Equal(t, b.ShortCode, updated.ShortCode)

	got, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three"}, got.TagNames())

	// the dropped tag survives as an entity
	all, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdatePartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b, err := s.Create(ctx, domain.NewBookmark{
		URL: "https://example.com/p", Title: "keep", Notes: "old", Tags: []string{"x"},
	})
	require.NoError(t, err)

	notes := "new"
	archived := true
	updated, err := s.Update(ctx, b.ID, domain.Patch{Notes: &notes, Archived: &archived})
	require.NoError(t, err)

	assert.Equal(t, "keep", updated.Title)
	assert.Equal(t, "new", updated.Notes)
	assert.True(t, updated.Archived)
	assert.Equal(t, []string{"x"}, updated.TagNames())
}

func TestUpdateClearsTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreate(t, s, "https://example.com/c", "a", "b")

	empty := []string{}
	updated, err := s.Update(ctx, b.ID, domain.Patch{Tags: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	title := "x"
	_, err := s.Update(context.Background(), "missing", domain.Patch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToggleArchive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreate(t, s, "https://example.com/t")

	once, err := s.ToggleArchive(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, once.Archived)
	assert.True(t, once.UpdatedAt.After(b.UpdatedAt))

	twice, err := s.ToggleArchive(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Archived, twice.Archived)
	assert.True(t, twice.UpdatedAt.After(once.UpdatedAt))

	_, err = s.ToggleArchive(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreate(t, s, "https://example.com/d", "keepme")

	require.NoError(t, s.Delete(ctx, b.ID))

	_, err := s.Get(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "keepme", tags[0].Name)

	var links int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM bookmark_tags").Scan(&links))
	assert.Zero(t, links)

	assert.ErrorIs(t, s.Delete(ctx, b.ID), domain.ErrNotFound)

	// the URL can be saved again once deleted
	_, err = s.Create(ctx, domain.NewBookmark{URL: "https://example.com/d"})
	assert.NoError(t, err)
}

func TestFindByShortCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreate(t, s, "http://example.com/page", "go")

	got, err := s.FindByShortCode(ctx, "srkwwb")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, []string{"go"}, got.TagNames())
	assert.True(t, got.UpdatedAt.After(b.UpdatedAt))

	_, err = s.FindByShortCode(ctx, "nope00")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTouch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := mustCreate(t, s, "https://example.com/touch")
	require.NoError(t, s.Touch(ctx, b.ID))

	got, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(b.UpdatedAt))

	assert.ErrorIs(t, s.Touch(ctx, "missing"), domain.ErrNotFound)
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	oldest, err := s.Create(ctx, domain.NewBookmark{
		URL: "https://golang.org/doc", Title: "Go docs", Tags: []string{"go"},
	})
	require.NoError(t, err)
	middle, err := s.Create(ctx, domain.NewBookmark{
		URL: "https://news.example.com/", Title: "Daily", Notes: "Morning READING 50%", Tags: []string{"news"},
	})
	require.NoError(t, err)
	newest, err := s.Create(ctx, domain.NewBookmark{
		URL: "https://blog.example.com/go-generics", Title: "Generics", Tags: []string{"go", "blog"}, Archived: true,
	})
	require.NoError(t, err)

	archived := true
	active := false

	tests := []struct {
		name     string
		filter   domain.Filter
		page     int
		perPage  int
		expected []string
		total    int
	}{
		{
			name:     "all newest first",
			filter:   domain.Filter{},
			page:     1,
			perPage:  10,
			expected: []string{newest.ID, middle.ID, oldest.ID},
			total:    3,
		},
		{
			name:     "by tag, case-insensitive",
			filter:   domain.Filter{Tag: "GO"},
			page:     1,
			perPage:  10,
			expected: []string{newest.ID, oldest.ID},
			total:    2,
		},
		{
			name:     "query matches title",
			filter:   domain.Filter{Query: "generics"},
			page:     1,
			perPage:  10,
			expected: []string{newest.ID},
			total:    1,
		},
		{
			name:     "query matches notes case-insensitively",
			filter:   domain.Filter{Query: "reading"},
			page:     1,
			perPage:  10,
			expected: []string{middle.ID},
			total:    1,
		},
		{
			name:     "query matches url",
			filter:   domain.Filter{Query: "golang.org"},
			page:     1,
			perPage:  10,
			expected: []string{oldest.ID},
			total:    1,
		},
		{
			name:     "like wildcards are literal",
			filter:   domain.Filter{Query: "50%"},
			page:     1,
			perPage:  10,
			expected: []string{middle.ID},
			total:    1,
		},
		{
			name:     "archived only",
			filter:   domain.Filter{Archived: &archived},
			page:     1,
			perPage:  10,
			expected: []string{newest.ID},
			total:    1,
		},
		{
			name:     "active with tag",
			filter:   domain.Filter{Archived: &active, Tag: "go"},
			page:     1,
			perPage:  10,
			expected: []string{oldest.ID},
			total:    1,
		},
		{
			name:     "second page",
			filter:   domain.Filter{},
			page:     2,
			perPage:  2,
			expected: []string{oldest.ID},
			total:    3,
		},
		{
			name:     "page past the end",
			filter:   domain.Filter{},
			page:     5,
			perPage:  2,
			expected: []string{},
			total:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := s.List(ctx, tt.filter, tt.page, tt.perPage)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)

			ids := make([]string, 0, len(items))
			for _, b := range items {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestListTagsLoaded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "https://a.example.com/", "b", "a")
	mustCreate(t, s, "https://b.example.com/")

	items, _, err := s.List(ctx, domain.Filter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Empty(t, items[0].Tags)
	assert.Equal(t, []string{"a", "b"}, items[1].TagNames())
}

func TestListInvalidPage(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.List(context.Background(), domain.Filter{}, 0, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListHugePage(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		mustCreate(t, s, fmt.Sprintf("https://%d.example.com/", i))
	}

	tests := []struct {
		name    string
		page    int
		perPage int
	}{
		{"offset overflows", math.MaxInt/10 + 2, 10},
		{"max page", math.MaxInt, 100},
		{"last page before overflow", math.MaxInt/10 + 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := s.List(context.Background(), domain.Filter{}, tt.page, tt.perPage)
			require.NoError(t, err)
			assert.Empty(t, items)
			assert.Equal(t, 3, total)
		})
	}
}

func TestListAll(t *testing.T) {
	s := newTestStore(t)
	first := mustCreate(t, s, "https://1.example.com/")
	second := mustCreate(t, s, "https://2.example.com/")

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := Open(path)
	require.NoError(t, err)
	b, err := s.Create(context.Background(), domain.NewBookmark{URL: "https://persist.example.com/"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.FindByHash(context.Background(), b.HashURL)
	require.NoError(t, err)
	assert.Equal(t, b.ShortCode, got.ShortCode)
}
