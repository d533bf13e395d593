// Package source reads word lists and JSON snapshots from URLs, files
// and glob patterns.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"codeberg.org/snonux/hanzicards/internal/batch"
	"codeberg.org/snonux/hanzicards/internal/store"
	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// ErrNotFound means the source does not exist (yet). Callers treat it as
// an empty list.
var ErrNotFound = errors.New("source not found")

// Fetcher loads sources. The zero value uses http.DefaultClient.
type Fetcher struct {
	Client *http.Client
	Now    func() time.Time
}

// IsURL reports whether src is an http(s) URL
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// IsPattern reports whether src contains glob meta characters
func IsPattern(src string) bool {
	return strings.ContainsAny(src, "*?[{")
}

// FetchTerms returns the cleaned terms of a newline-delimited list. A
// glob pattern concatenates all matching files in lexical order.
func (f *Fetcher) FetchTerms(ctx context.Context, src string) ([]string, error) {
	if IsURL(src) {
		body, err := f.get(ctx, src)
		if err != nil {
			return nil, err
		}
		return vocab.SplitLines(string(body)), nil
	}

	paths, err := Resolve(src)
	if err != nil {
		return nil, err
	}

	var terms []string
	for _, path := range paths {
		fileTerms, err := batch.ReadTermsFile(path)
		if err != nil {
			return nil, err
		}
		terms = append(terms, fileTerms...)
	}
	return vocab.CleanTerms(terms), nil
}

// FetchSnapshot returns the words of a JSON snapshot array.
func (f *Fetcher) FetchSnapshot(ctx context.Context, src string) ([]vocab.Word, error) {
	var (
		data []byte
		err  error
	)
	if IsURL(src) {
		data, err = f.get(ctx, src)
	} else {
		data, err = os.ReadFile(src)
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrNotFound, src)
		}
	}
	if err != nil {
		return nil, err
	}
	return store.Decode(data)
}

// Resolve expands src into the local files it names.
func Resolve(src string) ([]string, error) {
	if !IsPattern(src) {
		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, src)
			}
			return nil, fmt.Errorf("failed to stat %s: %w", src, err)
		}
		return []string{src}, nil
	}

	matches, err := doublestar.FilepathGlob(src)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", src, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no files match %s", ErrNotFound, src)
	}
	sort.Strings(matches)
	return matches, nil
}

// get fetches rawURL with a cache-busting t=<millis> parameter.
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL: %w", err)
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	return body, nil
}
