package resolver

import (
	"os"
	"path/filepath"
	"strings"
)

// probeInstalled checks the install root for an existing installation.
// Any installed package directory satisfies the host; a package applied
// as a closest match carries its own build in the directory name.
func (s *Service) probeInstalled() string {
	if s.cfg.IgnoreInstalled {
		return ""
	}

	return probeDirectory(s.cfg.InstallRoot, "", false)
}

// probeDirectory returns the first immediate subdirectory of root whose
// name satisfies the match predicate, or "" when root does not exist or
// nothing matches.
//
// With byVersion false the match is a "-<match>" build suffix; with
// byVersion true it is a plain substring. An empty match accepts any
// subdirectory.
func probeDirectory(root, match string, byVersion bool) string {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}

	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() {
			continue
		}

		name := dirEntry.Name()

		if match != "" {
			if byVersion {
				if !strings.Contains(name, match) {
					continue
				}
			} else if !strings.HasSuffix(name, "-"+match) {
				continue
			}
		}

		return filepath.Join(root, name)
	}

	return ""
}
