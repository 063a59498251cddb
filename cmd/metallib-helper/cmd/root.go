package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dortania-tools/metallib-helper/internal/config"
	"github.com/dortania-tools/metallib-helper/internal/logger"
	"github.com/dortania-tools/metallib-helper/internal/service/resolver"
	"github.com/dortania-tools/metallib-helper/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// logLevel is the minimum level for console output.
	logLevel string

	// runOptions collects flags shared by the subcommands.
	runOptions resolver.RunOptions

	// rootCmd represents the base command for support package management.
	rootCmd = &cobra.Command{
		Use:   "metallib-helper",
		Short: "Resolve, download and install Metal library support packages",
		Long: "metallib-helper matches the running macOS build against the published " +
			"support package manifest, picks the exact or closest compatible package, " +
			"and can download and install it.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
	}

	// resolveCmd reports which package the host needs without side effects.
	resolveCmd = &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the support package for this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return resolver.RunResolve(ctx, options(cmd))
		},
	}

	// downloadCmd resolves and transfers the package to local disk.
	downloadCmd = &cobra.Command{
		Use:   "download",
		Short: "Download the resolved support package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return resolver.RunDownload(ctx, options(cmd))
		},
	}

	// installCmd resolves, downloads when needed, and installs the package.
	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Install the resolved support package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return resolver.RunInstall(ctx, options(cmd))
		},
	}

	// listCmd prints the available packages from the manifest.
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List support packages from the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return resolver.RunList(ctx, options(cmd))
		},
	}
)

// Execute runs the metallib-helper CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options finalizes the run options for the invoked command.
func options(cmd *cobra.Command) *resolver.RunOptions {
	opts := runOptions
	opts.ConfigPath = configPath
	opts.Out = cmd.OutOrStdout()

	return &opts
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&runOptions.Build, "build", "", "override the host OS build")
	rootCmd.PersistentFlags().StringVar(&runOptions.OSVersion, "os-version", "", "override the host OS version")
	rootCmd.PersistentFlags().BoolVar(&runOptions.IgnoreInstalled, "ignore-installed", false, "re-resolve even when a package is installed")

	downloadCmd.Flags().StringVarP(&runOptions.OutputPath, "output", "o", "", "download destination path")

	installCmd.Flags().StringVar(&runOptions.ArtifactPath, "package", "", "install an already-downloaded package")
	installCmd.Flags().StringVarP(&runOptions.OutputPath, "output", "o", "", "download destination path")
	installCmd.Flags().BoolVar(&runOptions.Passive, "passive", false, "preview without invoking the installer")

	rootCmd.AddCommand(resolveCmd, downloadCmd, installCmd, listCmd)
}
