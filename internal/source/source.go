// Package source opens pipeline inputs that may live on disk or behind an
// http(s) URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pbaille/covsupport/internal/domain"
)

// MaxRemoteBytes caps how much of a remote table is read.
const MaxRemoteBytes = 256 << 20

var client = &http.Client{Timeout: 60 * time.Second}

// IsURL checks if a location looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://")
}

// Open returns a reader for a local path or a remote URL. A missing local
// file is reported as a *domain.PathError.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if IsURL(location) {
		return fetch(ctx, location)
	}
	f, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.PathError{Op: "open input", Path: location, Err: err}
		}
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return f, nil
}

// Exists reports whether a local path exists. URLs are assumed reachable
// until fetched.
func Exists(location string) bool {
	if IsURL(location) {
		return true
	}
	_, err := os.Stat(location)
	return err == nil
}

func fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "covsupport/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: HTTP %d: %s", rawURL, resp.StatusCode, resp.Status)
	}

	return &limitedBody{Reader: io.LimitReader(resp.Body, MaxRemoteBytes), body: resp.Body}, nil
}

type limitedBody struct {
	io.Reader
	body io.Closer
}

func (b *limitedBody) Close() error { return b.body.Close() }
