// Package bookmarks holds the write and read paths shared by the HTTP API
// and the CLI: URL normalization, the dedup gate, best-effort title fetch,
// redirects and bulk import.
package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
	redisstore "github.com/MrSnakeDoc/linkvault/internal/store/redis"
)

// Store is the persistence the service needs. *sqlite.Store implements it.
type Store interface {
	FindByHash(ctx context.Context, hash string) (*domain.Bookmark, error)
	Create(ctx context.Context, nb domain.NewBookmark) (*domain.Bookmark, error)
	Get(ctx context.Context, id string) (*domain.Bookmark, error)
	Update(ctx context.Context, id string, patch domain.Patch) (*domain.Bookmark, error)
	ToggleArchive(ctx context.Context, id string) (*domain.Bookmark, error)
	Delete(ctx context.Context, id string) error
	FindByShortCode(ctx context.Context, code string) (*domain.Bookmark, error)
	Touch(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.Filter, page, perPage int) ([]*domain.Bookmark, int, error)
	ListAll(ctx context.Context) ([]*domain.Bookmark, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
}

// TitleFetcher looks up a page title.
type TitleFetcher interface {
	FetchTitle(ctx context.Context, url string) (string, error)
}

// RedirectCache caches short code resolutions.
type RedirectCache interface {
	Get(ctx context.Context, shortCode string) (redisstore.Resolution, bool, error)
	Set(ctx context.Context, shortCode string, res redisstore.Resolution) error
	Invalidate(ctx context.Context, shortCode string) error
}

// Service coordinates the store with the optional title fetcher and cache.
type Service struct {
	store   Store
	fetcher TitleFetcher
	cache   RedirectCache
	log     logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTitleFetcher enables title lookup for bookmarks created without one.
func WithTitleFetcher(f TitleFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithRedirectCache fronts Resolve with a cache.
func WithRedirectCache(c RedirectCache) Option {
	return func(s *Service) { s.cache = c }
}

// NewService builds the bookmark service over store. Title fetching and the
// redirect cache are off unless enabled with options.
func NewService(store Store, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create normalizes the URL, rejects duplicates and stores the bookmark.
// When no title is given and a fetcher is configured, the page title is
// looked up; fetch failures leave the title empty.
func (s *Service) Create(ctx context.Context, in domain.NewBookmark) (*domain.Bookmark, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidURL)
	}

	normalized, err := domain.NormalizeURL(in.URL)
	if err != nil {
		return nil, err
	}
	in.URL = normalized

	existing, err := s.store.FindByHash(ctx, domain.HashURL(normalized))
	switch {
	case err == nil:
		return nil, &domain.DuplicateError{Existing: existing}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" && s.fetcher != nil {
		in.Title = s.fetchTitle(ctx, normalized)
	}

	b, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.log.Info("bookmark created",
		logger.String("id", b.ID),
		logger.String("short_code", b.ShortCode),
		logger.Int("tags", len(b.Tags)))
	return b, nil
}

func (s *Service) fetchTitle(ctx context.Context, url string) string {
	title, err := s.fetcher.FetchTitle(ctx, url)
	if err != nil {
		s.log.Debug("title fetch failed",
			logger.String("url", url),
			logger.Error(err))
		return ""
	}
	return title
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Bookmark, error) {
	return s.store.Get(ctx, id)
}

// Update applies a patch. An empty patch returns the bookmark unchanged.
func (s *Service) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Bookmark, error) {
	if patch.IsEmpty() {
		return s.store.Get(ctx, id)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	return s.store.Update(ctx, id, patch)
}

func (s *Service) ToggleArchive(ctx context.Context, id string) (*domain.Bookmark, error) {
	return s.store.ToggleArchive(ctx, id)
}

// Delete removes the bookmark and drops its cached redirect.
func (s *Service) Delete(ctx context.Context, id string) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, b.ShortCode)

	s.log.Info("bookmark deleted",
		logger.String("id", id),
		logger.String("short_code", b.ShortCode))
	return nil
}

// Resolve returns the target URL of a short code and refreshes the
// bookmark's UpdatedAt. The cache only short-circuits the URL lookup.
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	if s.cache != nil {
		res, ok, err := s.cache.Get(ctx, code)
		if err != nil {
			s.log.Warn("redirect cache read failed",
				logger.String("short_code", code),
				logger.Error(err))
		}
		if ok {
			err := s.store.Touch(ctx, res.BookmarkID)
			switch {
			case err == nil:
				return res.URL, nil
			case errors.Is(err, domain.ErrNotFound):
				// stale entry: the bookmark was deleted elsewhere
				s.invalidate(ctx, code)
			default:
				return "", err
			}
		}
	}

	b, err := s.store.FindByShortCode(ctx, code)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		res := redisstore.Resolution{BookmarkID: b.ID, URL: b.URL}
		if err := s.cache.Set(ctx, code, res); err != nil {
			s.log.Warn("redirect cache write failed",
				logger.String("short_code", code),
				logger.Error(err))
		}
	}
	return b.URL, nil
}

func (s *Service) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, code); err != nil {
		s.log.Warn("redirect cache invalidation failed",
			logger.String("short_code", code),
			logger.Error(err))
	}
}

func (s *Service) Tags(ctx context.Context) ([]domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// Export returns every bookmark, newest first, as codec records.
func (s *Service) Export(ctx context.Context) ([]domain.Record, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]domain.Record, 0, len(all))
	for _, b := range all {
		records = append(records, domain.RecordFromBookmark(b))
	}
	return records, nil
}
