package nodes

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// canonical turns "1.2.3" into "v1.2.3" so semver accepts it.
func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// CompareVersions orders version directory names: semantic versions compare
// numerically, and any semantic version is newer than a non-semver name.
// Two non-semver names compare lexicographically in reverse, so that sorting
// newest first leaves them in ascending order.
func CompareVersions(a, b string) int {
	ca, cb := canonical(a), canonical(b)
	va, vb := semver.IsValid(ca), semver.IsValid(cb)
	switch {
	case va && vb:
		if c := semver.Compare(ca, cb); c != 0 {
			return c
		}
		return strings.Compare(b, a)
	case va:
		return 1
	case vb:
		return -1
	}
	return strings.Compare(b, a)
}

// SortVersions sorts newest first.
func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) > 0
	})
}
