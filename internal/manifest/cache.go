package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dortania-tools/metallib-helper/internal/logger"
)

// errUnexpectedStatus is returned when the manifest endpoint answers non-200.
var errUnexpectedStatus = errors.New("unexpected manifest status")

// Cache fetches the support package manifest at most once and retains it
// for its whole lifetime. A failed fetch leaves the cache empty, so the
// next resolution attempt retries; within a single attempt callers must
// treat a fetch error as terminal.
//
// Cache is not safe for concurrent use. Resolution is a single-threaded,
// blocking flow; concurrent callers need their own instance or external
// locking.
type Cache struct {
	// endpoint is the manifest URL.
	endpoint string
	// userAgent identifies the calling product on the request.
	userAgent string
	// client issues the single GET with the configured timeout.
	client *http.Client
	// entries holds the parsed manifest once fetched.
	entries []Entry
	// fetched reports whether entries is populated.
	fetched bool
}

// NewCache creates an empty cache for the provided endpoint.
func NewCache(endpoint, userAgent string, timeout time.Duration) *Cache {
	return &Cache{
		endpoint:  endpoint,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch returns the cached manifest, downloading it on first use.
func (c *Cache) Fetch(ctx context.Context) ([]Entry, error) {
	if c.fetched {
		return c.entries, nil
	}

	logger.InfoKV(ctx, "Pulling support package manifest", "url", c.endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	response, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact manifest endpoint: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w", response.Status, errUnexpectedStatus)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read manifest body: %w", err)
	}

	entries, err := decodeEntries(ctx, body)
	if err != nil {
		return nil, err
	}

	c.entries = entries
	c.fetched = true

	logger.InfoKV(ctx, "Fetched support package manifest", "entries", len(entries))

	return c.entries, nil
}

// Populated reports whether the manifest has been fetched successfully.
func (c *Cache) Populated() bool {
	return c.fetched
}
