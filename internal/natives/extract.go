// Package natives extracts platform shared libraries bundled inside
// classifier jars into a flat per-launch natives directory.
package natives

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// isNativeEntry reports whether a jar entry is a shared library this
// launcher extracts: it ends in .dll, .so, or .dylib, and does not live
// under META-INF/.
func isNativeEntry(name string) bool {
	if strings.HasPrefix(name, "META-INF/") {
		return false
	}
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".dll") || strings.HasSuffix(lower, ".so") || strings.HasSuffix(lower, ".dylib")
}

// ExtractJar opens jarPath and copies every native shared-library entry
// into destDir, flattened to its basename. Pre-existing files at the
// destination are left alone. Returns the number of files extracted.
func ExtractJar(jarPath, destDir string) (int, error) {
	r, err := zip.OpenReader(jarPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, err
	}

	count := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isNativeEntry(f.Name) {
			continue
		}

		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		if _, err := os.Stat(destPath); err == nil {
			continue
		}

		if err := copyEntry(f, destPath); err != nil {
			continue
		}
		count++
	}

	return count, nil
}

func copyEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
