// Package libraries resolves and downloads a version's library list,
// extracting native shared libraries where present.
package libraries

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/quasar/mctui/internal/core"
	"github.com/quasar/mctui/internal/download"
	"github.com/quasar/mctui/internal/maven"
	"github.com/quasar/mctui/internal/natives"
	"github.com/quasar/mctui/internal/rules"
)

// FallbackRepos is the prioritized, de-duplicated repository list a
// Maven-coordinate library is resolved against when it carries no URL of
// its own, or its own URL fails.
var FallbackRepos = []string{
	"https://maven.fabricmc.net/",
	"https://repo.maven.apache.org/maven2/",
	"https://libraries.minecraft.net/",
}

// currentOSKey maps GOOS to the classifier-map key Mojang libraries use.
func currentOSKey() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	default:
		return "linux"
	}
}

// Result is the outcome of resolving one version's library list.
type Result struct {
	Classpath       []string // jar paths to add to -cp, in library order
	NativesExtracted int
}

// Fetch evaluates rules for every library in details, downloads whichever
// applies, and extracts natives into nativesDir. Downloads happen one
// library at a time; concurrent fan-out is reserved for the asset fetcher
// alone.
func Fetch(ctx context.Context, librariesDir, nativesDir string, details *core.VersionDetails, loader core.LoaderType) (*Result, error) {
	features := rules.ForLoader(loader)
	mgr := download.NewManager(1)

	var result Result

	for _, lib := range details.Libraries {
		if !rules.Allowed(lib.Rules, features) {
			continue
		}

		if err := fetchOne(ctx, mgr, librariesDir, nativesDir, &lib, &result); err != nil {
			return nil, fmt.Errorf("library %s: %w", lib.Name, err)
		}
	}

	return &result, nil
}

func fetchOne(ctx context.Context, mgr *download.Manager, librariesDir, nativesDir string, lib *core.Library, result *Result) error {
	// When both a Mojang artifact and a Maven name are present, the
	// Mojang path wins and the coordinate is ignored.
	if lib.Downloads != nil && lib.Downloads.Artifact != nil {
		dest := filepath.Join(librariesDir, filepath.FromSlash(lib.Downloads.Artifact.Path))
		if err := mgr.FetchOne(ctx, download.Item{
			URL:  lib.Downloads.Artifact.URL,
			Path: dest,
			SHA1: lib.Downloads.Artifact.SHA1,
			Size: lib.Downloads.Artifact.Size,
		}); err != nil {
			return err
		}
		result.Classpath = append(result.Classpath, dest)

		if n, err := extractNativesFromClassifiers(ctx, mgr, librariesDir, nativesDir, lib); err == nil {
			result.NativesExtracted += n
		}
		return nil
	}

	if lib.Name == "" {
		return nil
	}

	coord, err := maven.Parse(lib.Name)
	if err != nil {
		return err
	}

	if lib.Natives != nil {
		return extractNativesFromMavenCoord(ctx, mgr, librariesDir, nativesDir, lib, coord)
	}

	dest := filepath.Join(librariesDir, filepath.FromSlash(coord.Path()))
	if err := downloadViaRepos(ctx, mgr, dest, coord, repoList(lib)); err != nil {
		return err
	}
	result.Classpath = append(result.Classpath, dest)
	return nil
}

// repoList builds the prioritized, de-duplicated repository search order: a
// library's own url first, then the fallback list, skipping duplicates.
func repoList(lib *core.Library) []string {
	var repos []string
	seen := make(map[string]bool)

	add := func(r string) {
		if r == "" || seen[r] {
			return
		}
		seen[r] = true
		repos = append(repos, r)
	}

	add(lib.URL)
	for _, r := range FallbackRepos {
		add(r)
	}
	return repos
}

func downloadViaRepos(ctx context.Context, mgr *download.Manager, dest string, coord maven.Coordinate, repos []string) error {
	var lastErr error
	for _, repo := range repos {
		url := coord.URL(repo)
		if err := mgr.FetchOne(ctx, download.Item{URL: url, Path: dest}); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no repository configured")
	}
	return fmt.Errorf("all repositories failed: %w", lastErr)
}

func extractNativesFromClassifiers(ctx context.Context, mgr *download.Manager, librariesDir, nativesDir string, lib *core.Library) (int, error) {
	if lib.Natives == nil || lib.Downloads == nil || lib.Downloads.Classifiers == nil {
		return 0, nil
	}

	classifierKey, ok := lib.Natives[currentOSKey()]
	if !ok {
		return 0, nil
	}

	artifact, ok := lib.Downloads.Classifiers[classifierKey]
	if !ok || artifact == nil {
		return 0, nil
	}

	dest := filepath.Join(librariesDir, filepath.FromSlash(artifact.Path))
	if err := mgr.FetchOne(ctx, download.Item{URL: artifact.URL, Path: dest, SHA1: artifact.SHA1, Size: artifact.Size}); err != nil {
		return 0, err
	}

	return natives.ExtractJar(dest, nativesDir)
}

func extractNativesFromMavenCoord(ctx context.Context, mgr *download.Manager, librariesDir, nativesDir string, lib *core.Library, coord maven.Coordinate) error {
	classifierKey, ok := lib.Natives[currentOSKey()]
	if !ok {
		return nil
	}

	nativeCoord := coord
	nativeCoord.Classifier = classifierKey

	dest := filepath.Join(librariesDir, filepath.FromSlash(nativeCoord.Path()))
	if err := downloadViaRepos(ctx, mgr, dest, nativeCoord, repoList(lib)); err != nil {
		return err
	}

	_, err := natives.ExtractJar(dest, nativesDir)
	return err
}
