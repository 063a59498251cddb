// Package config defines resolver settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the manifest endpoint, install root, download
// destination and the passive/environment switches honored by the resolver.
package config
