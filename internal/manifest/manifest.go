package manifest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dortania-tools/metallib-helper/internal/logger"
)

// Entry describes one published support package build.
// The manifest is served newest-compatible-first; slice order is
// therefore meaningful and must be preserved.
type Entry struct {
	// Build is the exact macOS build the package was produced for.
	Build string `json:"build"`
	// Version is the macOS version the package targets.
	Version string `json:"version"`
	// URL is the package download location.
	URL string `json:"url"`
}

// decodeEntries parses the manifest body into typed entries.
// Entries missing a required field are skipped and logged rather than
// failing the whole manifest.
func decodeEntries(ctx context.Context, body []byte) ([]Entry, error) {
	var raw []Entry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	entries := make([]Entry, 0, len(raw))

	for i, entry := range raw {
		if entry.Build == "" || entry.Version == "" || entry.URL == "" {
			logger.WarnKV(ctx, "Skipping malformed manifest entry",
				"index", i, "build", entry.Build, "version", entry.Version)

			continue
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
