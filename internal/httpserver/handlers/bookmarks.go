package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
	"github.com/MrSnakeDoc/linkvault/internal/httpserver/deps"
)

type createRequest struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags"`
	Archived bool     `json:"archived"`
}

// updateRequest fields left out of the body are not modified.
type updateRequest struct {
	Title    *string   `json:"title"`
	Notes    *string   `json:"notes"`
	Archived *bool     `json:"archived"`
	Tags     *[]string `json:"tags"`
}

type pagination struct {
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Total   int    `json:"total"`
	Pages   int    `json:"pages"`
	HasNext bool   `json:"has_next"`
	HasPrev bool   `json:"has_prev"`
	NextURL string `json:"next_url,omitempty"`
	PrevURL string `json:"prev_url,omitempty"`
}

type listResponse struct {
	Items      []bookmarkResponse `json:"items"`
	Pagination pagination         `json:"pagination"`
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d, http.StatusBadRequest, "invalid json body: "+err.Error())
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeError(w, d, http.StatusBadRequest, "url is required")
			return
		}

		b, err := d.Bookmarks.Create(r.Context(), domain.NewBookmark{
			URL:      req.URL,
			Title:    req.Title,
			Notes:    req.Notes,
			Tags:     req.Tags,
			Archived: req.Archived,
		})
		if err != nil {
			writeServiceError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusCreated, toBookmarkResponse(d, b))
	}
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := domain.Filter{
			Tag:   strings.TrimSpace(q.Get("tag")),
			Query: strings.TrimSpace(q.Get("q")),
		}
		if raw := strings.TrimSpace(q.Get("archived")); raw != "" {
			archived, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, d, http.StatusBadRequest, "archived must be a boolean")
				return
			}
			filter.Archived = &archived
		}

		page, err := d.Bookmarks.List(r.Context(), filter, queryInt(q, "page"), queryInt(q, "per_page"))
		if err != nil {
			writeServiceError(w, r, d, err)
			return
		}

		items := make([]bookmarkResponse, 0, len(page.Items))
		for _, b := range page.Items {
			items = append(items, toBookmarkResponse(d, b))
		}

		p := pagination{
			Page:    page.Page,
			PerPage: page.PerPage,
			Total:   page.Total,
			Pages:   page.Pages(),
			HasNext: page.HasNext(),
			HasPrev: page.HasPrev(),
		}
		if p.HasNext {
			p.NextURL = pageURL(r, page.Page+1, page.PerPage)
		}
		if p.HasPrev {
			p.PrevURL = pageURL(r, page.Page-1, page.PerPage)
		}

		writeJSON(w, d, http.StatusOK, listResponse{Items: items, Pagination: p})
	}
}

// queryInt returns 0 for missing or malformed values so defaults apply.
func queryInt(q url.Values, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get(key)))
	if err != nil {
		return 0
	}
	return n
}

// pageURL rebuilds the request URL with another page, keeping the filters.
func pageURL(r *http.Request, page, perPage int) string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return r.URL.Path + "?" + q.Encode()
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Bookmarks.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, toBookmarkResponse(d, b))
	}
}

func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d, http.StatusBadRequest, "invalid json body: "+err.Error())
			return
		}

		b, err := d.Bookmarks.Update(r.Context(), chi.URLParam(r, "id"), domain.Patch{
			Title:    req.Title,
			Notes:    req.Notes,
			Archived: req.Archived,
			Tags:     req.Tags,
		})
		if err != nil {
			writeServiceError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, toBookmarkResponse(d, b))
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Bookmarks.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, map[string]string{"deleted": id})
	}
}

func ToggleArchive(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Bookmarks.ToggleArchive(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, d, err)
			return
		}
		writeJSON(w, d, http.StatusOK, toBookmarkResponse(d, b))
	}
}
