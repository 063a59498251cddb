package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dortania-tools/metallib-helper/internal/config"
	"github.com/dortania-tools/metallib-helper/internal/environment"
	"github.com/dortania-tools/metallib-helper/internal/manifest"
	"github.com/dortania-tools/metallib-helper/internal/osver"
)

// fakeRunner records installer invocations instead of executing them.
type fakeRunner struct {
	calls  [][]string
	output []byte
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))

	return f.output, f.err
}

// manifestServer serves the provided body and counts requests.
func manifestServer(t *testing.T, body string, requests *int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*requests++

		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

// testConfig returns settings pointing at temp locations and the given endpoint.
func testConfig(t *testing.T, manifestURL string) *config.Config {
	t.Helper()

	dir := t.TempDir()

	return &config.Config{
		ManifestURL:  manifestURL,
		InstallRoot:  filepath.Join(dir, "installed"),
		DownloadPath: filepath.Join(dir, "pkg.pkg"),
		Timeout:      time.Second,
	}
}

const sequoiaManifest = `[
	{"build": "24C101", "version": "15.2", "url": "https://pkgs.local/24C101.pkg"},
	{"build": "24B91", "version": "15.1.1", "url": "https://pkgs.local/24B91.pkg"},
	{"build": "24A335", "version": "15.0", "url": "https://pkgs.local/24A335.pkg"}
]`

// TestResolve_EnvironmentExcluded skips everything: no probe, no network.
func TestResolve_EnvironmentExcluded(t *testing.T) {
	t.Parallel()

	var requests int

	server := manifestServer(t, sequoiaManifest, &requests)
	cfg := testConfig(t, server.URL)

	// An installed package is present; the guard must not even look at it.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.InstallRoot, "MetallibSupportPkg-15.1.1-24B91"), 0o755))

	service := NewService(&Options{
		Config:      cfg,
		Host:        Host{Build: "24B91", Version: "15.1.1"},
		Environment: environment.Environment{Recovery: true},
	})

	resolution := service.Resolve(context.Background())
	require.True(t, resolution.OK())
	require.Equal(t, OutcomeEnvironmentExcluded, resolution.Outcome)
	require.Nil(t, resolution.Entry)
	require.Empty(t, resolution.InstalledPath)
	require.Zero(t, requests)
}

// TestResolve_NotRequired succeeds without a network call for pre-Sequoia hosts.
func TestResolve_NotRequired(t *testing.T) {
	t.Parallel()

	var requests int

	server := manifestServer(t, sequoiaManifest, &requests)

	service := NewService(&Options{
		Config: testConfig(t, server.URL),
		Host:   Host{Build: "23H124", Version: "14.7.1"},
	})

	resolution := service.Resolve(context.Background())
	require.Equal(t, OutcomeNotRequired, resolution.Outcome)
	require.Zero(t, requests)
}

// TestResolve_AlreadyInstalled short-circuits before the manifest fetch
// and produces no download descriptor.
func TestResolve_AlreadyInstalled(t *testing.T) {
	t.Parallel()

	var requests int

	server := manifestServer(t, sequoiaManifest, &requests)
	cfg := testConfig(t, server.URL)

	installed := filepath.Join(cfg.InstallRoot, "MetallibSupportPkg-15.1.1-24B91")
	require.NoError(t, os.MkdirAll(installed, 0o755))

	service := NewService(&Options{
		Config: cfg,
		Host:   Host{Build: "24B91", Version: "15.1.1"},
	})

	resolution := service.Resolve(context.Background())
	require.Equal(t, OutcomeAlreadyInstalled, resolution.Outcome)
	require.Equal(t, installed, resolution.InstalledPath)
	require.Zero(t, requests)

	require.Nil(t, service.DownloadDescriptor(""))
}

// TestResolve_IgnoreInstalled forces re-resolution past a present installation.
func TestResolve_IgnoreInstalled(t *testing.T) {
	t.Parallel()

	var requests int

	server := manifestServer(t, sequoiaManifest, &requests)
	cfg := testConfig(t, server.URL)
	cfg.IgnoreInstalled = true

	require.NoError(t, os.MkdirAll(filepath.Join(cfg.InstallRoot, "MetallibSupportPkg-15.1.1-24B91"), 0o755))

	service := NewService(&Options{
		Config: cfg,
		Host:   Host{Build: "24B91", Version: "15.1.1"},
	})

	resolution := service.Resolve(context.Background())
	require.Equal(t, OutcomeExactMatch, resolution.Outcome)
	require.Equal(t, 1, requests)
}

// TestResolve_ExactMatchPriority selects the exact build even when newer
// versions precede it in the manifest.
func TestResolve_ExactMatchPriority(t *testing.T) {
	t.Parallel()

	var requests int

	server := manifestServer(t, sequoiaManifest, &requests)

	service := NewService(&Options{
		Config: testConfig(t, server.URL),
		Host:   Host{Build: "24A335", Version: "15.0"},
	})

	resolution := service.Resolve(context.Background())
	require.Equal(t, OutcomeExactMatch, resolution.Outcome)
	require.NotNil(t, resolution.Entry)
	require.Equal(t, "24A335", resolution.Entry.Build)
}

// TestResolve_ClosestMatch falls back to the first compatible entry when
// the host build is not published.
func TestResolve_ClosestMatch(t *testing.T) {
	t.Parallel()

	var requests int

	server := manifestServer(t, sequoiaManifest, &requests)

	// Build 24B85 is unpublished; 15.1 sits between 15.0 and 15.1.1.
	service := NewService(&Options{
		Config: testConfig(t, server.URL),
		Host:   Host{Build: "24B85", Version: "15.1"},
	})

	resolution := service.Resolve(context.Background())
	require.Equal(t, OutcomeClosestMatch, resolution.Outcome)
	require.NotNil(t, resolution.Entry)
	require.Equal(t, "24A335", resolution.Entry.Build)
}

// TestMatch_ClosestBounds pins the fallback filters: never newer than the
// host, never a different major version.
func TestMatch_ClosestBounds(t *testing.T) {
	t.Parallel()

	service := NewService(&Options{
		Config: testConfig(t, "https://unused.local/manifest.json"),
		Host:   Host{Build: "UNPUBLISHED"},
	})

	entries := []manifest.Entry{
		{Build: "C", Version: "11.0", URL: "https://pkgs.local/c.pkg"},
		{Build: "B", Version: "10.3", URL: "https://pkgs.local/b.pkg"},
		{Build: "A", Version: "10.1", URL: "https://pkgs.local/a.pkg"},
	}

	hostVersion, err := osver.Parse("10.2")
	require.NoError(t, err)

	resolution := service.match(context.Background(), entries, hostVersion)
	require.Equal(t, OutcomeClosestMatch, resolution.Outcome)
	require.Equal(t, "A", resolution.Entry.Build)
}

// TestMatch_FirstMatchPolicy documents that manifest order, not version
// distance, decides the fallback.
func TestMatch_FirstMatchPolicy(t *testing.T) {
	t.Parallel()

	service := NewService(&Options{
		Config: testConfig(t, "https://unused.local/manifest.json"),
		Host:   Host{Build: "UNPUBLISHED"},
	})

	// Deliberately not newest-first: the first passing entry wins anyway.
	entries := []manifest.Entry{
		{Build: "OLD", Version: "10.0", URL: "https://pkgs.local/old.pkg"},
		{Build: "NEW", Version: "10.1", URL: "https://pkgs.local/new.pkg"},
	}

	hostVersion, err := osver.Parse("10.2")
	require.NoError(t, err)

	resolution := service.match(context.Background(), entries, hostVersion)
	require.Equal(t, OutcomeClosestMatch, resolution.Outcome)
	require.Equal(t, "OLD", resolution.Entry.Build)
}

// TestMatch_SkipsUnparsableVersions drops malformed entries instead of failing.
func TestMatch_SkipsUnparsableVersions(t *testing.T) {
	t.Parallel()

	service := NewService(&Options{
		Config: testConfig(t, "https://unused.local/manifest.json"),
		Host:   Host{Build: "UNPUBLISHED"},
	})

	entries := []manifest.Entry{
		{Build: "BAD", Version: "not-a-version", URL: "https://pkgs.local/bad.pkg"},
		{Build: "GOOD", Version: "15.0", URL: "https://pkgs.local/good.pkg"},
	}

	hostVersion, err := osver.Parse("15.1")
	require.NoError(t, err)

	resolution := service.match(context.Background(), entries, hostVersion)
	require.Equal(t, OutcomeClosestMatch, resolution.Outcome)
	require.Equal(t, "GOOD", resolution.Entry.Build)
}

// TestResolve_NoSuitablePackage reports an error naming the host build
// when every entry violates the fallback bounds.
func TestResolve_NoSuitablePackage(t *testing.T) {
	t.Parallel()

	var requests int

	// Only a next-major entry is published.
	server := manifestServer(t, `[
		{"build": "25A300", "version": "26.0", "url": "https://pkgs.local/25A300.pkg"}
	]`, &requests)

	service := NewService(&Options{
		Config: testConfig(t, server.URL),
		Host:   Host{Build: "24B85", Version: "15.1"},
	})

	resolution := service.Resolve(context.Background())
	require.False(t, resolution.OK())
	require.ErrorIs(t, resolution.Err, errNoSuitablePackage)
	require.ErrorContains(t, resolution.Err, "no suitable package found for build 24B85")

	require.Nil(t, service.DownloadDescriptor(""))
}

// TestResolve_ManifestUnavailable treats a transport failure as terminal
// for the attempt.
func TestResolve_ManifestUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	service := NewService(&Options{
		Config: testConfig(t, server.URL),
		Host:   Host{Build: "24B91", Version: "15.1.1"},
	})

	resolution := service.Resolve(context.Background())
	require.False(t, resolution.OK())
	require.ErrorIs(t, resolution.Err, errManifestUnavailable)
}

// TestResolve_BadHostVersion fails fast on an unparsable host version.
func TestResolve_BadHostVersion(t *testing.T) {
	t.Parallel()

	service := NewService(&Options{
		Config: testConfig(t, "https://unused.local/manifest.json"),
		Host:   Host{Build: "24B91", Version: "fifteen"},
	})

	resolution := service.Resolve(context.Background())
	require.False(t, resolution.OK())
	require.Error(t, resolution.Err)
}

// TestDownloadDescriptor covers default and override destinations.
func TestDownloadDescriptor(t *testing.T) {
	t.Parallel()

	var requests int

	server := manifestServer(t, sequoiaManifest, &requests)
	cfg := testConfig(t, server.URL)

	service := NewService(&Options{
		Config: cfg,
		Host:   Host{Build: "24B91", Version: "15.1.1"},
	})

	// No resolution yet.
	require.Nil(t, service.DownloadDescriptor(""))

	resolution := service.Resolve(context.Background())
	require.Equal(t, OutcomeExactMatch, resolution.Outcome)

	descriptor := service.DownloadDescriptor("")
	require.NotNil(t, descriptor)
	require.Equal(t, resolution.Entry.URL, descriptor.SourceURL)
	require.Equal(t, cfg.DownloadPath, descriptor.DestinationPath)

	descriptor = service.DownloadDescriptor("/tmp/custom.pkg")
	require.NotNil(t, descriptor)
	require.Equal(t, "/tmp/custom.pkg", descriptor.DestinationPath)
}
