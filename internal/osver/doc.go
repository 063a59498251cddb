// Package osver models macOS version numbers and release generations.
//
// Version is a small comparable major.minor.patch type used to order
// manifest entries against the host. Generation maps a marketing version
// to its Darwin kernel line so requirement gates stay monotonic across
// the macOS 15 to 26 numbering jump.
package osver
