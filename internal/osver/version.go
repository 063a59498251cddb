package osver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// errEmptyVersion is returned when an empty string is parsed.
var errEmptyVersion = errors.New("empty version string")

// Version is a comparable macOS version number.
// macOS versions never carry pre-release or build metadata,
// so three numeric components are sufficient.
type Version struct {
	// Major is the OS release line (e.g. 15 for Sequoia).
	Major int
	// Minor is the feature update number within the release line.
	Minor int
	// Patch is the security update number.
	Patch int
}

// Parse converts strings like "15", "15.1" or "15.1.1" into a Version.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, errEmptyVersion
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version %q: too many components", s)
	}

	var numbers [3]int

	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q: bad component %q", s, part)
		}

		numbers[i] = n
	}

	return Version{
		Major: numbers[0],
		Minor: numbers[1],
		Patch: numbers[2],
	}, nil
}

// Compare returns -1, 0 or 1 when v is respectively lower than,
// equal to or greater than other.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}

	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}

	return compareInt(v.Patch, other.Patch)
}

// String renders the version in dotted decimal form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
