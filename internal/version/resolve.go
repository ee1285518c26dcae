// Package version resolves a version descriptor ("latest" or an explicit
// id) against the upstream manifest, and compares dotted version strings.
package version

import (
	"context"
	"strconv"
	"strings"

	"github.com/quasar/mctui/internal/core"
)

// ManifestFetcher is the subset of the Mojang API client the resolver needs.
type ManifestFetcher interface {
	GetLatestRelease(ctx context.Context) (string, error)
}

// Resolve returns descriptor unchanged unless it is empty or
// case-insensitively "latest", in which case it fetches latest.release from
// the upstream manifest. Failure to fetch in the "latest" case is a hard
// error: the resolver never guesses.
func Resolve(ctx context.Context, descriptor string, fetcher ManifestFetcher) (string, error) {
	if descriptor != "" && !strings.EqualFold(descriptor, "latest") {
		return descriptor, nil
	}

	release, err := fetcher.GetLatestRelease(ctx)
	if err != nil {
		return "", core.NewError(core.KindUpstreamUnavailable, "resolving latest release", err)
	}
	if release == "" {
		return "", core.NewError(core.KindUpstreamUnavailable, "upstream manifest has no latest release", nil)
	}
	return release, nil
}

// GE compares two dotted numeric version strings component-wise; missing
// trailing components are treated as zero. Returns true iff a >= b.
func GE(a, b string) bool {
	ap := splitNumeric(a)
	bp := splitNumeric(b)

	n := len(ap)
	if len(bp) > n {
		n = len(bp)
	}

	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(ap) {
			av = ap[i]
		}
		if i < len(bp) {
			bv = bp[i]
		}
		if av != bv {
			return av > bv
		}
	}
	return true // equal prefixes
}

func splitNumeric(s string) []int {
	parts := strings.Split(s, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		// Strip any non-numeric suffix (e.g. "5-pre1") down to the leading digits.
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		if end == 0 {
			out = append(out, 0)
			continue
		}
		v, err := strconv.Atoi(p[:end])
		if err != nil {
			v = 0
		}
		out = append(out, v)
	}
	return out
}
