// Package manifest fetches and caches the remote support package manifest.
//
// The manifest is a JSON array of build/version/url records served
// newest-compatible-first. Cache downloads it once per instance with a
// short timeout and a product-identifying User-Agent header; malformed
// entries are skipped at the boundary instead of failing the fetch.
package manifest
