package updater

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed release version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse reads a release tag like "1.4.2" or "v1.4.2". Pre-release
// suffixes and negative components are rejected.
func Parse(tag string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	fields := strings.Split(raw, ".")
	if len(fields) != 3 {
		return Version{}, fmt.Errorf("invalid version %q", tag)
	}

	var nums [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q", tag)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 as v is older than, equal to, or newer
// than o.
func (v Version) Compare(o Version) int {
	for _, d := range []int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}
