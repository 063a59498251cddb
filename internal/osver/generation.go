package osver

// Generation identifies a macOS release line by its Darwin kernel major.
// Using the kernel number keeps ordering monotonic across the marketing
// version jump from 15 (Sequoia) to 26 (Tahoe).
type Generation int

// Known macOS generations.
const (
	GenerationUnknown  Generation = 0
	GenerationCatalina Generation = 19
	GenerationBigSur   Generation = 20
	GenerationMonterey Generation = 21
	GenerationVentura  Generation = 22
	GenerationSonoma   Generation = 23
	GenerationSequoia  Generation = 24
	GenerationTahoe    Generation = 25
)

// GenerationFromVersion maps a macOS version to its Darwin generation.
//
// macOS 11 through 15 map to Darwin 20 through 24. From macOS 26 on,
// the marketing major runs one ahead of the kernel. Legacy 10.x releases
// derive the generation from the minor component (10.15 is Darwin 19).
func GenerationFromVersion(v Version) Generation {
	switch {
	case v.Major >= 26:
		return Generation(v.Major - 1)
	case v.Major >= 11 && v.Major <= 15:
		return Generation(v.Major + 9)
	case v.Major == 10:
		return Generation(v.Minor + 4)
	default:
		return GenerationUnknown
	}
}

// String returns the marketing name for known generations.
func (g Generation) String() string {
	switch g {
	case GenerationCatalina:
		return "Catalina"
	case GenerationBigSur:
		return "Big Sur"
	case GenerationMonterey:
		return "Monterey"
	case GenerationVentura:
		return "Ventura"
	case GenerationSonoma:
		return "Sonoma"
	case GenerationSequoia:
		return "Sequoia"
	case GenerationTahoe:
		return "Tahoe"
	case GenerationUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}
