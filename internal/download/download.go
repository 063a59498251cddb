package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dortania-tools/metallib-helper/internal/logger"
)

// errUnexpectedStatus is returned when the package host answers non-200.
var errUnexpectedStatus = errors.New("unexpected download status")

// artifactFileMode is applied to downloaded package files.
const artifactFileMode os.FileMode = 0o644

// Descriptor pairs a package URL with its local destination.
type Descriptor struct {
	// SourceURL is the remote package location.
	SourceURL string
	// DestinationPath is where the package is written locally.
	DestinationPath string
}

// Transfer downloads the descriptor's URL into its destination path.
// The destination's parent directory is created when missing. No timeout
// is imposed beyond the context; package downloads are large and callers
// cancel via ctx.
func Transfer(ctx context.Context, descriptor *Descriptor) error {
	if descriptor == nil {
		return errors.New("download descriptor is not set")
	}

	logger.InfoKV(ctx, "Downloading support package",
		"url", descriptor.SourceURL, "destination", descriptor.DestinationPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, descriptor.SourceURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download package: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w", response.Status, errUnexpectedStatus)
	}

	destination := filepath.Clean(descriptor.DestinationPath)
	if err = os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	output, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, artifactFileMode)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}

	written, err := io.Copy(output, response.Body)
	if err != nil {
		_ = output.Close()

		return fmt.Errorf("write package: %w", err)
	}

	if err = output.Close(); err != nil {
		return fmt.Errorf("close destination file: %w", err)
	}

	logger.InfoKV(ctx, "Downloaded support package", "bytes", written)

	return nil
}
