package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/dortania-tools/metallib-helper/internal/config"
	"github.com/dortania-tools/metallib-helper/internal/download"
	"github.com/dortania-tools/metallib-helper/internal/environment"
	"github.com/dortania-tools/metallib-helper/internal/logger"
	"github.com/dortania-tools/metallib-helper/internal/manifest"
	"github.com/dortania-tools/metallib-helper/internal/osver"
	"github.com/dortania-tools/metallib-helper/internal/version"
)

var (
	// errNoSuitablePackage is returned when no manifest entry fits the host.
	errNoSuitablePackage = errors.New("no suitable package found")
	// errManifestUnavailable is returned when the manifest cannot be fetched.
	errManifestUnavailable = errors.New("failed to fetch support package manifest")
	// errInstallFailed is returned when the platform installer exits non-zero.
	errInstallFailed = errors.New("support package installation failed")
)

// requiredGeneration is the first macOS generation needing a Metal
// library support package.
const requiredGeneration = osver.GenerationSequoia

// Host identifies the operating system build the resolver works against.
type Host struct {
	// Build is the exact OS build identifier (e.g. "24B91").
	Build string
	// Version is the OS version string (e.g. "15.1.1").
	Version string
}

// Outcome enumerates the mutually exclusive results of a resolution attempt.
type Outcome int

const (
	// OutcomeUnresolved means resolution failed; Resolution.Err carries the cause.
	OutcomeUnresolved Outcome = iota
	// OutcomeEnvironmentExcluded means resolution was skipped deliberately.
	OutcomeEnvironmentExcluded
	// OutcomeNotRequired means the host OS predates the support package requirement.
	OutcomeNotRequired
	// OutcomeAlreadyInstalled means a local installation satisfies the host.
	OutcomeAlreadyInstalled
	// OutcomeExactMatch means a manifest entry matches the host build exactly.
	OutcomeExactMatch
	// OutcomeClosestMatch means a compatible older entry was selected.
	OutcomeClosestMatch
)

// String renders the outcome for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeEnvironmentExcluded:
		return "environment-excluded"
	case OutcomeNotRequired:
		return "not-required"
	case OutcomeAlreadyInstalled:
		return "already-installed"
	case OutcomeExactMatch:
		return "exact-match"
	case OutcomeClosestMatch:
		return "closest-match"
	case OutcomeUnresolved:
		return "unresolved"
	default:
		return "unresolved"
	}
}

// Resolution is the immutable result of a single resolution attempt.
type Resolution struct {
	// Outcome classifies the attempt.
	Outcome Outcome
	// Entry is the selected manifest entry for exact and closest matches.
	Entry *manifest.Entry
	// InstalledPath is the local installation directory when already installed.
	InstalledPath string
	// Err carries the failure cause when Outcome is OutcomeUnresolved.
	Err error
}

// OK reports whether the attempt reached a definite outcome.
func (r *Resolution) OK() bool {
	return r != nil && r.Outcome != OutcomeUnresolved
}

// Service resolves, downloads and installs the support package matching
// a host. All collaborators are injected; the zero values are filled
// with production defaults by NewService.
//
// Service is single-threaded: resolution, download and install are
// blocking calls and the embedded manifest cache is unsynchronized.
type Service struct {
	cfg        *config.Config
	host       Host
	env        environment.Environment
	cache      *manifest.Cache
	runner     Runner
	resolution *Resolution
}

// Options are inputs accepted by NewService.
type Options struct {
	// Config holds resolver settings. Required.
	Config *config.Config
	// Host identifies the OS build to resolve for. Required.
	Host Host
	// Environment flags installer/recovery contexts.
	Environment environment.Environment
	// Cache overrides the manifest cache; built from Config when nil.
	Cache *manifest.Cache
	// Runner overrides the privileged installer runner; defaults to os/exec.
	Runner Runner
}

// NewService wires a resolver service from the provided options.
func NewService(opts *Options) *Service {
	cache := opts.Cache
	if cache == nil {
		cache = manifest.NewCache(opts.Config.ManifestURL, version.UserAgent(), opts.Config.Timeout)
	}

	runner := opts.Runner
	if runner == nil {
		runner = NewPrivilegedRunner()
	}

	return &Service{
		cfg:    opts.Config,
		host:   opts.Host,
		env:    opts.Environment,
		cache:  cache,
		runner: runner,
	}
}

// Resolve performs one resolution attempt and retains its result for the
// download and install steps.
func (s *Service) Resolve(ctx context.Context) *Resolution {
	resolution := s.resolve(ctx)

	if resolution.Entry != nil {
		logger.Info(ctx, "Recommended support package:")
		logger.Infof(ctx, "  Build: %s", resolution.Entry.Build)
		logger.Infof(ctx, "  Version: %s", resolution.Entry.Version)
		logger.Infof(ctx, "  URL: %s", resolution.Entry.URL)
	}

	s.resolution = resolution

	return resolution
}

// Resolution returns the result of the last Resolve call, or nil.
func (s *Service) Resolution() *Resolution {
	return s.resolution
}

// resolve walks the guard, gate, probe, fetch and match steps in order.
func (s *Service) resolve(ctx context.Context) *Resolution {
	// No package can legally be applied from an installer or recovery boot.
	if s.env.Excluded() {
		logger.Info(ctx, "Installer/Recovery environment detected, skipping support package resolution")

		return &Resolution{Outcome: OutcomeEnvironmentExcluded}
	}

	hostVersion, err := osver.Parse(s.host.Version)
	if err != nil {
		return &Resolution{Err: fmt.Errorf("parse host version: %w", err)}
	}

	if osver.GenerationFromVersion(hostVersion) < requiredGeneration {
		logger.Info(ctx, "Support package not required for this OS")

		return &Resolution{Outcome: OutcomeNotRequired}
	}

	if installedPath := s.probeInstalled(); installedPath != "" {
		logger.InfoKV(ctx, "Support package already installed", "path", installedPath)

		return &Resolution{
			Outcome:       OutcomeAlreadyInstalled,
			InstalledPath: installedPath,
		}
	}

	entries, err := s.cache.Fetch(ctx)
	if err != nil {
		logger.Warnf(ctx, "Could not fetch support package manifest: %v", err)

		return &Resolution{Err: fmt.Errorf("%w: %w", errManifestUnavailable, err)}
	}

	return s.match(ctx, entries, hostVersion)
}

// match selects a manifest entry for the host: the exact build when
// published, otherwise the first compatible entry in manifest order.
// The manifest encodes priority newest-compatible-first, so no sorting
// or distance comparison happens here.
func (s *Service) match(ctx context.Context, entries []manifest.Entry, hostVersion osver.Version) *Resolution {
	for i := range entries {
		if entries[i].Build == s.host.Build {
			return &Resolution{
				Outcome: OutcomeExactMatch,
				Entry:   &entries[i],
			}
		}
	}

	for i := range entries {
		entryVersion, err := osver.Parse(entries[i].Version)
		if err != nil {
			logger.WarnKV(ctx, "Skipping entry with unparsable version",
				"build", entries[i].Build, "version", entries[i].Version)

			continue
		}

		// Never newer than the host, never across a major version.
		if entryVersion.Compare(hostVersion) > 0 {
			continue
		}

		if entryVersion.Major != hostVersion.Major {
			continue
		}

		return &Resolution{
			Outcome: OutcomeClosestMatch,
			Entry:   &entries[i],
		}
	}

	return &Resolution{Err: fmt.Errorf("%w for build %s", errNoSuitablePackage, s.host.Build)}
}

// DownloadDescriptor pairs the resolved package URL with a destination path.
// It returns nil when nothing needs downloading: no resolution yet, the
// package is already installed, or no entry was selected.
func (s *Service) DownloadDescriptor(overridePath string) *download.Descriptor {
	if s.resolution == nil || s.resolution.Entry == nil {
		return nil
	}

	destination := s.cfg.DownloadPath
	if overridePath != "" {
		destination = overridePath
	}

	return &download.Descriptor{
		SourceURL:       s.resolution.Entry.URL,
		DestinationPath: destination,
	}
}

// Install applies the downloaded package through the platform installer.
// It is an idempotent no-op in passive mode, when resolution selected no
// entry, or when the package is already installed. The artifact path
// defaults to the configured download destination.
func (s *Service) Install(ctx context.Context, artifactPath string) error {
	if s.cfg.Passive {
		logger.Info(ctx, "Passive mode, skipping support package installation")

		return nil
	}

	if s.resolution == nil || s.resolution.Entry == nil {
		return nil
	}

	if artifactPath == "" {
		artifactPath = s.cfg.DownloadPath
	}

	logger.InfoKV(ctx, "Installing support package", "package", artifactPath)

	output, err := s.runner.Run(ctx, installerCommand, "-pkg", artifactPath, "-target", installTarget)
	if err != nil {
		logger.ErrorKV(ctx, "Support package installation failed",
			"error", err, "output", string(output))

		return fmt.Errorf("%w: %w", errInstallFailed, err)
	}

	return nil
}
