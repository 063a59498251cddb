// Package resolver decides which Metal library support package a host
// needs and manages its idempotent acquisition and installation.
//
// A resolution attempt walks a fixed pipeline: environment guard
// (installer/recovery boots skip everything), OS generation gate
// (packages are only required from Sequoia on), local installation probe,
// cached manifest fetch, then exact-build match with a deterministic
// closest-compatible fallback. The result is surfaced as a Resolution
// value; callers turn it into a download descriptor and, on demand, an
// installer invocation.
package resolver
