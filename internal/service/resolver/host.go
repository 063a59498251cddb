package resolver

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// swVersCommand reports the running OS version and build.
	swVersCommand = "/usr/bin/sw_vers"

	// hostDetectTimeout bounds the sw_vers invocations.
	hostDetectTimeout = 10 * time.Second
)

// DetectHost reads the running system's OS version and build via sw_vers.
func DetectHost(ctx context.Context) (Host, error) {
	ctx, cancel := context.WithTimeout(ctx, hostDetectTimeout)
	defer cancel()

	osVersion, err := swVers(ctx, "-productVersion")
	if err != nil {
		return Host{}, fmt.Errorf("detect OS version: %w", err)
	}

	build, err := swVers(ctx, "-buildVersion")
	if err != nil {
		return Host{}, fmt.Errorf("detect OS build: %w", err)
	}

	return Host{
		Build:   build,
		Version: osVersion,
	}, nil
}

// swVers runs sw_vers with the provided flag and trims its output.
func swVers(ctx context.Context, flag string) (string, error) {
	output, err := exec.CommandContext(ctx, swVersCommand, flag).Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(output)), nil
}
