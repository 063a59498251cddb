// Package download transfers a resolved support package to local disk.
//
// Descriptor is the unit of work: a source URL paired with a destination
// path. Transfer streams the package with context cancellation and leaves
// retry decisions to the caller.
package download
