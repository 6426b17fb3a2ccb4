package bookmarks

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
	redisstore "github.com/MrSnakeDoc/linkvault/internal/store/redis"
	"github.com/MrSnakeDoc/linkvault/internal/store/sqlite"
)

type fakeFetcher struct {
	mu    sync.Mutex
	title string
	err   error
	calls []string
}

func (f *fakeFetcher) FetchTitle(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	return f.title, f.err
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]redisstore.Resolution
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]redisstore.Resolution{}}
}

func (c *fakeCache) Get(_ context.Context, code string) (redisstore.Resolution, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return redisstore.Resolution{}, false, c.getErr
	}
	res, ok := c.entries[code]
	return res, ok, nil
}

func (c *fakeCache) Set(_ context.Context, code string, res redisstore.Resolution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = res
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code)
	return nil
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "linkvault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateNormalizesAndDedups(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t), logger.Nop())

	b, err := svc.Create(ctx, domain.NewBookmark{
		URL:  "http://Example.com/page#x",
		Tags: []string{"News", "news"},
	})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/page", b.URL)
	assert.Equal(t, "b2b930c1becd9bf779aec623d0a72653867d2146f97b942e5aa36f0a66197335", b.HashURL)
	assert.Equal(t, "srkwwb", b.ShortCode)
	assert.Equal(t, []string{"news"}, b.TagNames())

	_, err = svc.Create(ctx, domain.NewBookmark{URL: "http://example.com/page"})
	dup, ok := domain.AsDuplicate(err)
	require.True(t, ok, "expected DuplicateError, got %v", err)
	assert.Equal(t, b.ID, dup.Existing.ID)

	page, err := svc.List(ctx, domain.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestCreateInvalidURL(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t), logger.Nop())

	for _, raw := range []string{"", "   ", "example.com/no-scheme", "http://"} {
		_, err := svc.Create(ctx, domain.NewBookmark{URL: raw})
		assert.ErrorIs(t, err, domain.ErrInvalidURL, "url %q", raw)
	}
}

func TestCreateFetchesTitle(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{title: "Fetched"}
	svc := NewService(newStore(t), logger.Nop(), WithTitleFetcher(fetcher))

	b, err := svc.Create(ctx, domain.NewBookmark{URL: "https://go.dev/doc/"})
	require.NoError(t, err)
	assert.Equal(t, "Fetched", b.Title)
	assert.Equal(t, []string{"https://go.dev/doc/"}, fetcher.calls)

	// explicit titles are kept and no fetch happens
	b, err = svc.Create(ctx, domain.NewBookmark{URL: "https://go.dev/blog/", Title: " Mine "})
	require.NoError(t, err)
	assert.Equal(t, "Mine", b.Title)
	assert.Len(t, fetcher.calls, 1)

	// duplicates are rejected before any fetch
	_, err = svc.Create(ctx, domain.NewBookmark{URL: "https://GO.dev/doc/"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Len(t, fetcher.calls, 1)
}

func TestCreateTitleFetchFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{err: errors.New("boom")}
	svc := NewService(newStore(t), logger.Nop(), WithTitleFetcher(fetcher))

	b, err := svc.Create(ctx, domain.NewBookmark{URL: "https://unreachable.example.com/"})
	require.NoError(t, err)
	assert.Empty(t, b.Title)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t), logger.Nop())

	b, err := svc.Create(ctx, domain.NewBookmark{URL: "https://example.com/u", Title: "old", Tags: []string{"a"}})
	require.NoError(t, err)

	same, err := svc.Update(ctx, b.ID, domain.Patch{})
	require.NoError(t, err)
	assert.True(t, same.UpdatedAt.Equal(b.UpdatedAt))

	title := "  new  "
	tags := []string{"B"}
	updated, err := svc.Update(ctx, b.ID, domain.Patch{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, []string{"b"}, updated.TagNames())

	_, err = svc.Update(ctx, "missing", domain.Patch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveWithoutCache(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := NewService(store, logger.Nop())

	b, err := svc.Create(ctx, domain.NewBookmark{URL: "http://example.com/page"})
	require.NoError(t, err)

	url, err := svc.Resolve(ctx, "srkwwb")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/page", url)

	got, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.Before(b.UpdatedAt))

	_, err = svc.Resolve(ctx, "zzzzzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveWithCache(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := NewService(newStore(t), logger.Nop(), WithRedirectCache(cache))

	b, err := svc.Create(ctx, domain.NewBookmark{URL: "http://example.com/page"})
	require.NoError(t, err)

	url, err := svc.Resolve(ctx, b.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, b.URL, url)
	assert.Equal(t, redisstore.Resolution{BookmarkID: b.ID, URL: b.URL}, cache.entries[b.ShortCode])

	// served from cache
	url, err = svc.Resolve(ctx, b.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, b.URL, url)

	// delete drops the cached entry
	require.NoError(t, svc.Delete(ctx, b.ID))
	assert.NotContains(t, cache.entries, b.ShortCode)

	_, err = svc.Resolve(ctx, b.ShortCode)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveStaleCacheEntry(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := NewService(newStore(t), logger.Nop(), WithRedirectCache(cache))

	cache.entries["srkwwb"] = redisstore.Resolution{BookmarkID: "gone", URL: "http://stale.example.com/"}

	_, err := svc.Resolve(ctx, "srkwwb")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotContains(t, cache.entries, "srkwwb")
}

func TestResolveCacheErrorFallsBack(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	svc := NewService(newStore(t), logger.Nop(), WithRedirectCache(cache))

	b, err := svc.Create(ctx, domain.NewBookmark{URL: "https://fallback.example.com/"})
	require.NoError(t, err)

	url, err := svc.Resolve(ctx, b.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, b.URL, url)
}

func TestDeleteNotFound(t *testing.T) {
	svc := NewService(newStore(t), logger.Nop())
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), domain.ErrNotFound)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t), logger.Nop(), WithTitleFetcher(&fakeFetcher{title: "never used"}))

	_, err := svc.Create(ctx, domain.NewBookmark{URL: "http://example.com/page", Title: "existing"})
	require.NoError(t, err)

	res, err := svc.Import(ctx, []domain.Record{
		{URL: "https://go.dev/doc/", Title: "Docs", Tags: []string{"Go", "docs"}},
		{URL: "ftp://x.com/file"},
		{URL: "http://example.com/page#frag"},
		{URL: "https://example.com/50%off", Title: "Sale"},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Added: 2, SkippedInvalid: 1, SkippedDuplicate: 1}, res)
	assert.Equal(t, 2, res.Skipped())

	page, err := svc.List(ctx, domain.Filter{Tag: "go"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Docs", page.Items[0].Title)
	assert.Equal(t, []string{"docs", "go"}, page.Items[0].TagNames())

	sale, err := svc.List(ctx, domain.Filter{Query: "Sale"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "https://example.com/50%off", sale.Items[0].URL)
}

func TestImportInvalidAndInBatchDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t), logger.Nop())

	res, err := svc.Import(ctx, []domain.Record{
		{URL: ""},
		{URL: "javascript:alert(1)"},
		{URL: "https://"},
		{URL: "HTTPS://Example.com/a"},
		{URL: "https://example.com/a"},
	})
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Added: 1, SkippedInvalid: 3, SkippedDuplicate: 1}, res)
}

func TestImportCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(newStore(t), logger.Nop())
	_, err := svc.Import(ctx, []domain.Record{{URL: "https://example.com/"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t), logger.Nop())

	first, err := svc.Create(ctx, domain.NewBookmark{URL: "https://one.example.com/", Tags: []string{"x"}})
	require.NoError(t, err)
	second, err := svc.Create(ctx, domain.NewBookmark{URL: "https://two.example.com/", Notes: "n"})
	require.NoError(t, err)

	records, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	urls := []string{records[0].URL, records[1].URL}
	assert.ElementsMatch(t, []string{first.URL, second.URL}, urls)
	for _, r := range records {
		assert.False(t, r.AddedAt.IsZero())
	}
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t), logger.Nop())

	_, err := svc.Create(ctx, domain.NewBookmark{URL: "https://a.example.com/", Tags: []string{"b", "A"}})
	require.NoError(t, err)

	tags, err := svc.Tags(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}
