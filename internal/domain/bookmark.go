package domain

import "time"

// Bookmark is a saved URL and its metadata.
//
// A Bookmark is uniquely identified by its HashURL, which is derived from the
// normalized URL. ShortCode is derived from HashURL and is used for redirects.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned by the store on creation.
	ID string `json:"id"`

	// URL is the normalized URL (see NormalizeURL).
	// Example: https://example.com/Path?q=1
	URL string `json:"url"`

	// HashURL is the SHA-256 of URL, lower-case hex.
	HashURL string `json:"hash_url"`

	// ShortCode is the 6 character redirect code derived from HashURL.
	ShortCode string `json:"short_code"`

	// ─────────────────────────────
	// Metadata (mutable)
	// ─────────────────────────────

	Title    string `json:"title"`
	Notes    string `json:"notes"`
	Archived bool   `json:"archived"`
	Tags     []Tag  `json:"tags"`

	// CreatedAt is set once by the store.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on every mutation, including archive toggles
	// and short code redirects.
	UpdatedAt time.Time `json:"updated_at"`
}

// TagNames returns the names of the bookmark tags.
func (b *Bookmark) TagNames() []string {
	names := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Tag is a lower-cased, trimmed label shared between bookmarks.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewBookmark holds the input of a create. URL must already be normalized.
type NewBookmark struct {
	URL      string
	Title    string
	Notes    string
	Tags     []string
	Archived bool
}

// Patch describes a partial update. Nil fields are left untouched.
// A non-nil Tags replaces the whole tag set.
type Patch struct {
	Title    *string
	Notes    *string
	Archived *bool
	Tags     *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Notes == nil && p.Archived == nil && p.Tags == nil
}

// Filter narrows a bookmark listing. Zero values disable a criterion.
type Filter struct {
	Tag      string // exact tag name (case-insensitive)
	Query    string // substring over url, title and notes (case-insensitive)
	Archived *bool
}

// Record is the flat bookmark shape exchanged with import/export codecs.
type Record struct {
	URL      string
	Title    string
	Notes    string
	Tags     []string
	Archived bool
	AddedAt  time.Time
}

// RecordFromBookmark converts a stored bookmark to its export record.
func RecordFromBookmark(b *Bookmark) Record {
	return Record{
		URL:      b.URL,
		Title:    b.Title,
		Notes:    b.Notes,
		Tags:     b.TagNames(),
		Archived: b.Archived,
		AddedAt:  b.CreatedAt,
	}
}
