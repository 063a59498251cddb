package environment

import (
	"context"
	"os"

	"github.com/mitchellh/go-ps"

	"github.com/dortania-tools/metallib-helper/internal/logger"
)

// recoveryMarkerPath exists on recoveryOS and installer ramdisks,
// never on a regular boot volume.
const recoveryMarkerPath = "/private/etc/rc.install"

// installerProcessNames are macOS installer daemons whose presence means
// an OS installation is in progress.
//
//nolint:gochecknoglobals // Static lookup table.
var installerProcessNames = map[string]struct{}{
	"osinstallersetupd": {},
	"InstallAssistant":  {},
	"Language Chooser":  {},
}

// Environment describes the execution context the resolver runs in.
// Support packages can neither be resolved nor applied from an installer
// or recovery boot, so either flag excludes resolution entirely.
type Environment struct {
	// Installer is true while an OS installation is in progress.
	Installer bool
	// Recovery is true when booted into recoveryOS.
	Recovery bool
}

// Excluded reports whether resolution must be skipped.
func (e Environment) Excluded() bool {
	return e.Installer || e.Recovery
}

// Detect inspects the running system for installer and recovery markers.
// Detection is best-effort; errors degrade to "not detected" so a probe
// failure never blocks resolution on a healthy system.
func Detect(ctx context.Context) Environment {
	env := Environment{
		Installer: installerRunning(ctx),
		Recovery:  bootedFromRecovery(),
	}

	if env.Excluded() {
		logger.InfoKV(ctx, "Restricted environment detected",
			"installer", env.Installer, "recovery", env.Recovery)
	}

	return env
}

// installerRunning scans the process table for known installer daemons.
func installerRunning(ctx context.Context) bool {
	processes, err := ps.Processes()
	if err != nil {
		logger.Debugf(ctx, "Unable to list processes: %v", err)
		return false
	}

	for _, process := range processes {
		if _, found := installerProcessNames[process.Executable()]; found {
			return true
		}
	}

	return false
}

// bootedFromRecovery checks for the recovery ramdisk filesystem marker.
func bootedFromRecovery() bool {
	_, err := os.Stat(recoveryMarkerPath)

	return err == nil
}
