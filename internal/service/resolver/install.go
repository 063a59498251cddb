package resolver

import (
	"context"
	"os"
	"os/exec"
)

const (
	// installerCommand is the macOS package installer.
	installerCommand = "/usr/sbin/installer"
	// installTarget is the volume packages are installed onto.
	installTarget = "/"
)

// Runner executes a privileged command and returns its combined output.
// The error is non-nil when the command cannot start or exits non-zero.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands through os/exec, escalating via sudo when the
// process itself lacks root privileges.
type execRunner struct{}

// NewPrivilegedRunner returns the production Runner.
//
//nolint:ireturn // Constructor intentionally returns the interface.
func NewPrivilegedRunner() Runner {
	return execRunner{}
}

// Run executes the command and captures stdout and stderr together so
// installer diagnostics survive into error reports.
func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if os.Geteuid() != 0 {
		// Non-interactive: fail instead of prompting inside a service.
		args = append([]string{"-n", name}, args...)
		name = "sudo"
	}

	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
