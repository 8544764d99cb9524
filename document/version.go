package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a PDF file format version such as 1.7 or 2.0.
type Version struct {
	Major int
	Minor int
}

// MaxSupported is the newest format version the engine round-trips.
var MaxSupported = Version{Major: 2, Minor: 0}

// String returns the version as a string (e.g., "1.7")
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v is older than o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// ParseVersion parses "major.minor".
func ParseVersion(s string) (Version, error) {
	majorStr, minorStr, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Version{}, fmt.Errorf("invalid version format: %q", s)
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil || major < 0 {
		return Version{}, fmt.Errorf("invalid major version: %q", s)
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil || minor < 0 {
		return Version{}, fmt.Errorf("invalid minor version: %q", s)
	}
	return Version{Major: major, Minor: minor}, nil
}
