package resolver

import (
	"context"
	"fmt"
	"io"

	"github.com/dortania-tools/metallib-helper/internal/config"
	"github.com/dortania-tools/metallib-helper/internal/download"
	"github.com/dortania-tools/metallib-helper/internal/environment"
	"github.com/dortania-tools/metallib-helper/internal/logger"
	"github.com/dortania-tools/metallib-helper/internal/manifest"
	"github.com/dortania-tools/metallib-helper/internal/version"
)

// RunOptions are inputs accepted by the CLI entry points.
type RunOptions struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Build overrides the detected host OS build.
	Build string
	// OSVersion overrides the detected host OS version.
	OSVersion string
	// Passive previews the run without invoking the installer.
	Passive bool
	// IgnoreInstalled forces re-resolution even when a package is present.
	IgnoreInstalled bool
	// OutputPath overrides the download destination.
	OutputPath string
	// ArtifactPath points install at an already-downloaded package.
	ArtifactPath string
	// Out receives human-readable command output.
	Out io.Writer
}

// RunResolve resolves the support package for the host and reports the outcome.
func RunResolve(ctx context.Context, opts *RunOptions) error {
	ctx = logger.WithName(ctx, "resolver")

	service, err := newService(ctx, opts)
	if err != nil {
		return err
	}

	resolution := service.Resolve(ctx)
	if resolution.Err != nil {
		return resolution.Err
	}

	logger.InfoKV(ctx, "Resolution completed", "outcome", resolution.Outcome.String())

	return nil
}

// RunDownload resolves the support package and transfers it to local disk.
func RunDownload(ctx context.Context, opts *RunOptions) error {
	ctx = logger.WithName(ctx, "resolver")

	service, err := newService(ctx, opts)
	if err != nil {
		return err
	}

	resolution := service.Resolve(ctx)
	if resolution.Err != nil {
		return resolution.Err
	}

	descriptor := service.DownloadDescriptor(opts.OutputPath)
	if descriptor == nil {
		logger.InfoKV(ctx, "Nothing to download", "outcome", resolution.Outcome.String())

		return nil
	}

	return download.Transfer(ctx, descriptor)
}

// RunInstall resolves, downloads when necessary, and installs the support package.
func RunInstall(ctx context.Context, opts *RunOptions) error {
	ctx = logger.WithName(ctx, "resolver")

	service, err := newService(ctx, opts)
	if err != nil {
		return err
	}

	resolution := service.Resolve(ctx)
	if resolution.Err != nil {
		return resolution.Err
	}

	artifactPath := opts.ArtifactPath

	// Download first unless the caller supplied a package, nothing was
	// resolved, or the run is a passive preview.
	if artifactPath == "" && !opts.Passive {
		if descriptor := service.DownloadDescriptor(opts.OutputPath); descriptor != nil {
			if err = download.Transfer(ctx, descriptor); err != nil {
				return err
			}

			artifactPath = descriptor.DestinationPath
		}
	}

	return service.Install(ctx, artifactPath)
}

// RunList fetches the manifest and prints the available packages.
func RunList(ctx context.Context, opts *RunOptions) error {
	ctx = logger.WithName(ctx, "resolver")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	cache := manifest.NewCache(cfg.ManifestURL, version.UserAgent(), cfg.Timeout)

	entries, err := cache.Fetch(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		_, _ = fmt.Fprintf(opts.Out, "%s\t%s\t%s\n", entry.Build, entry.Version, entry.URL)
	}

	return nil
}

// newService loads configuration, applies CLI overrides and wires a Service.
func newService(ctx context.Context, opts *RunOptions) (*Service, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.Passive {
		cfg.Passive = true
	}

	if opts.IgnoreInstalled {
		cfg.IgnoreInstalled = true
	}

	host := Host{
		Build:   opts.Build,
		Version: opts.OSVersion,
	}

	if host.Build == "" || host.Version == "" {
		detected, err := DetectHost(ctx)
		if err != nil {
			return nil, err
		}

		if host.Build == "" {
			host.Build = detected.Build
		}

		if host.Version == "" {
			host.Version = detected.Version
		}
	}

	env := environment.Detect(ctx)

	// Configuration can force either flag for callers that know better.
	if cfg.InstallerEnvironment {
		env.Installer = true
	}

	if cfg.RecoveryEnvironment {
		env.Recovery = true
	}

	return NewService(&Options{
		Config:      cfg,
		Host:        host,
		Environment: env,
	}), nil
}
