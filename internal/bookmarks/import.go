package bookmarks

import (
	"context"
	"errors"
	"strings"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
)

// ImportResult counts what happened to each imported record.
type ImportResult struct {
	Added            int `json:"added"`
	SkippedInvalid   int `json:"skipped_invalid"`
	SkippedDuplicate int `json:"skipped_duplicate"`
}

// Skipped is the total of skipped records.
func (r ImportResult) Skipped() int {
	return r.SkippedInvalid + r.SkippedDuplicate
}

// Import stores records through the same dedup gate as Create.
//
// Records without an http(s) URL, or whose URL does not normalize, are
// skipped as invalid. Records that already exist (in the store or earlier in
// the batch) are skipped as duplicates. Titles are never fetched. Any other
// error aborts the import; records added before it stay added.
func (s *Service) Import(ctx context.Context, records []domain.Record) (ImportResult, error) {
	var res ImportResult

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		raw := strings.TrimSpace(rec.URL)
		if raw == "" || !domain.HasHTTPScheme(raw) {
			res.SkippedInvalid++
			s.log.Debug("import: skipping record without http(s) url",
				logger.Int("index", i),
				logger.String("url", raw))
			continue
		}

		normalized, err := domain.NormalizeURL(raw)
		if err != nil {
			res.SkippedInvalid++
			s.log.Debug("import: skipping invalid url",
				logger.Int("index", i),
				logger.String("url", raw),
				logger.Error(err))
			continue
		}

		_, err = s.store.Create(ctx, domain.NewBookmark{
			URL:      normalized,
			Title:    strings.TrimSpace(rec.Title),
			Notes:    rec.Notes,
			Tags:     rec.Tags,
			Archived: rec.Archived,
		})
		switch {
		case err == nil:
			res.Added++
		case errors.Is(err, domain.ErrDuplicate):
			res.SkippedDuplicate++
		case errors.Is(err, domain.ErrShortCodeCollision):
			res.SkippedDuplicate++
			s.log.Warn("import: short code collision",
				logger.String("url", normalized),
				logger.Error(err))
		default:
			return res, err
		}
	}

	s.log.Info("import finished",
		logger.Int("added", res.Added),
		logger.Int("skipped_invalid", res.SkippedInvalid),
		logger.Int("skipped_duplicate", res.SkippedDuplicate))
	return res, nil
}
