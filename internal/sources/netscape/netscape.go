// Package netscape reads and writes the Netscape bookmark file format
// exported by every major browser.
package netscape

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
)

const header = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
`

const footer = "</DL><p>\n"

// Parse returns one record per <A> element, in document order.
//
// Records are returned as found: an anchor without HREF yields a record with
// an empty URL so callers can count it as invalid. TAGS is split on commas,
// the link text becomes the title and the text of a <DD> directly following
// the anchor becomes the notes.
func Parse(r io.Reader) ([]domain.Record, error) {
	z := html.NewTokenizer(r)

	var (
		records []domain.Record
		current *domain.Record
		text    strings.Builder
		inLink  bool
		inNotes bool
	)

	// flush closes the pending record once nothing more can attach to it.
	flush := func() {
		if current == nil {
			return
		}
		if inNotes {
			current.Notes = strings.TrimSpace(text.String())
		}
		records = append(records, *current)
		current = nil
		inLink, inNotes = false, false
		text.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parse bookmarks html: %w", err)
			}
			flush()
			return records, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch atom.Lookup(name) {
			case atom.A:
				flush()
				rec := domain.Record{Tags: []string{}}
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					applyAttr(&rec, string(key), string(val))
				}
				current = &rec
				inLink = tt == html.StartTagToken
				text.Reset()
			case atom.Dd:
				if current != nil && !inLink && !inNotes {
					inNotes = true
					text.Reset()
				} else {
					flush()
				}
			case atom.Dt, atom.Dl, atom.H3:
				flush()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.A:
				if inLink && current != nil {
					current.Title = strings.TrimSpace(text.String())
					inLink = false
					text.Reset()
				}
			case atom.Dl, atom.Dt, atom.Dd:
				flush()
			}

		case html.TextToken:
			if inLink || inNotes {
				text.Write(z.Text())
			}
		}
	}
}

func applyAttr(rec *domain.Record, key, val string) {
	switch key {
	case "href":
		rec.URL = strings.TrimSpace(val)
	case "tags":
		for _, t := range strings.Split(val, ",") {
			if t = strings.TrimSpace(t); t != "" {
				rec.Tags = append(rec.Tags, t)
			}
		}
	case "add_date":
		if secs, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil && secs > 0 {
			rec.AddedAt = time.Unix(secs, 0).UTC()
		}
	}
}

// Write renders records as a Netscape bookmark document, one <DT> per record
// in the given order. Records without a title use their URL as link text.
func Write(w io.Writer, records []domain.Record) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		var addDate int64
		if !rec.AddedAt.IsZero() {
			addDate = rec.AddedAt.Unix()
		}
		text := rec.Title
		if text == "" {
			text = rec.URL
		}

		if _, err := fmt.Fprintf(bw, "    <DT><A HREF=\"%s\" ADD_DATE=\"%d\" TAGS=\"%s\">%s</A>\n",
			html.EscapeString(rec.URL),
			addDate,
			html.EscapeString(strings.Join(rec.Tags, ",")),
			html.EscapeString(text),
		); err != nil {
			return fmt.Errorf("write bookmark: %w", err)
		}

		if rec.Notes != "" {
			if _, err := fmt.Fprintf(bw, "    <DD>%s\n", html.EscapeString(rec.Notes)); err != nil {
				return fmt.Errorf("write notes: %w", err)
			}
		}
	}

	if _, err := bw.WriteString(footer); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return bw.Flush()
}
