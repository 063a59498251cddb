package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testManifest = `[
	{"build": "24B91", "version": "15.1.1", "url": "https://pkgs.local/24B91.pkg"},
	{"build": "24A335", "version": "15.0", "url": "https://pkgs.local/24A335.pkg"}
]`

// TestCache_FetchOnce verifies the manifest is downloaded a single time
// and served from memory afterwards.
func TestCache_FetchOnce(t *testing.T) {
	t.Parallel()

	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		require.Equal(t, "tester/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(testManifest))
	}))
	defer server.Close()

	cache := NewCache(server.URL, "tester/1.0", time.Second)

	entries, err := cache.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "24B91", entries[0].Build)
	require.True(t, cache.Populated())

	// Second fetch must not hit the network.
	entries, err = cache.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 1, requests)
}

// TestCache_BadStatus ensures non-200 responses fail the fetch and leave
// the cache empty so a later attempt can retry.
func TestCache_BadStatus(t *testing.T) {
	t.Parallel()

	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++

		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		_, _ = w.Write([]byte(testManifest))
	}))
	defer server.Close()

	cache := NewCache(server.URL, "tester/1.0", time.Second)

	_, err := cache.Fetch(context.Background())
	require.Error(t, err)
	require.False(t, cache.Populated())

	// A fresh attempt against the same cache retries the download.
	entries, err := cache.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

// TestCache_Unreachable covers transport-level failures.
func TestCache_Unreachable(t *testing.T) {
	t.Parallel()

	cache := NewCache("http://127.0.0.1:1/manifest.json", "tester/1.0", 200*time.Millisecond)

	_, err := cache.Fetch(context.Background())
	require.Error(t, err)
	require.False(t, cache.Populated())
}

// TestDecodeEntries_SkipsMalformed ensures entries with missing fields are
// dropped without failing the manifest.
func TestDecodeEntries_SkipsMalformed(t *testing.T) {
	t.Parallel()

	body := `[
		{"build": "24B91", "version": "15.1.1", "url": "https://pkgs.local/a.pkg"},
		{"build": "", "version": "15.1", "url": "https://pkgs.local/b.pkg"},
		{"build": "24A335", "version": "15.0"}
	]`

	entries, err := decodeEntries(context.Background(), []byte(body))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "24B91", entries[0].Build)
}

// TestDecodeEntries_InvalidJSON ensures a non-array body is a fetch failure.
func TestDecodeEntries_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := decodeEntries(context.Background(), []byte(`{"oops": true}`))
	require.Error(t, err)
}
