package javart

import (
	"github.com/Masterminds/semver/v3"
)

// RequiredMajor returns the Java major version a Minecraft version id
// requires: 21 from 1.20.5 onward, 17 from 1.17 onward, 8 otherwise.
// An id that doesn't parse as a dotted version is treated as pre-1.17.
func RequiredMajor(mcVersion string) int {
	v, err := semver.NewVersion(mcVersion)
	if err != nil {
		return 8
	}

	if ge(v, "1.20.5") {
		return 21
	}
	if ge(v, "1.17.0") {
		return 17
	}
	return 8
}

func ge(v *semver.Version, floor string) bool {
	f, err := semver.NewVersion(floor)
	if err != nil {
		return false
	}
	return v.Compare(f) >= 0
}
