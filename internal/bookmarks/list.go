package bookmarks

import (
	"context"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Page is one page of a filtered listing.
type Page struct {
	Items   []*domain.Bookmark
	Page    int
	PerPage int
	Total   int
}

// Pages is the number of pages needed for Total items (at least 0).
func (p Page) Pages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page) HasNext() bool { return p.Page < p.Pages() }
func (p Page) HasPrev() bool { return p.Page > 1 }

// ClampPaging applies the listing defaults: page below 1 becomes 1,
// perPage below 1 becomes DefaultPerPage and is capped at MaxPerPage.
func ClampPaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// List returns a page of bookmarks matching filter, newest first.
func (s *Service) List(ctx context.Context, filter domain.Filter, page, perPage int) (Page, error) {
	page, perPage = ClampPaging(page, perPage)
	filter.Tag = domain.NormalizeTagName(filter.Tag)

	items, total, err := s.store.List(ctx, filter, page, perPage)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}, nil
}
