package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/MrSnakeDoc/linkvault/internal/utils"
)

const (
	// DefaultTimeout bounds a whole title fetch.
	DefaultTimeout = 5 * time.Second
	// maxBodyBytes is how much of a page is read looking for <title>.
	maxBodyBytes = 1 << 20
	// maxTitleLen caps stored titles (runes).
	maxTitleLen = 500

	userAgent = "Mozilla/5.0 (compatible; linkvault/1.0; +https://github.com/MrSnakeDoc/linkvault)"
)

// ErrNoTitle is returned when the page has no usable <title>.
var ErrNoTitle = errors.New("no title found")

// TitleFetcher fetches a page and extracts its <title>.
type TitleFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// New returns a TitleFetcher whose fetches never exceed timeout.
func New(timeout time.Duration) *TitleFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TitleFetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// FetchTitle downloads rawURL and returns the trimmed text of its first <title>.
func (f *TitleFetcher) FetchTitle(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "html") {
		return "", fmt.Errorf("%w: content type %q", ErrNoTitle, ct)
	}

	return ExtractTitle(io.LimitReader(resp.Body, maxBodyBytes))
}

// ExtractTitle scans an HTML stream for the first <title> element.
// Whitespace inside the title is collapsed.
func ExtractTitle(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	inTitle := false
	var sb strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("parse html: %w", err)
			}
			return finishTitle(sb.String())

		case html.StartTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Title {
				inTitle = true
			}

		case html.TextToken:
			if inTitle {
				sb.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Title:
				return finishTitle(sb.String())
			case atom.Head:
				// nothing after </head> is a document title
				if !inTitle {
					return "", ErrNoTitle
				}
			}
		}
	}
}

func finishTitle(raw string) (string, error) {
	title := strings.Join(strings.Fields(raw), " ")
	if title == "" {
		return "", ErrNoTitle
	}
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen])
	}
	return title, nil
}
