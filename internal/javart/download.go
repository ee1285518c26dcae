package javart

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/quasar/mctui/internal/core"
)

// Downloader handles downloading Java runtimes from Adoptium. Only invoked
// on Windows; other platforms require a user-supplied runtime.
type Downloader struct {
	client *retryablehttp.Client
}

// NewDownloader creates a new Java downloader.
func NewDownloader() *Downloader {
	client := retryablehttp.NewClient()
	client.Logger = nil
	return &Downloader{client: client}
}

// Ensure resolves a runtime for requiredMajor per the usual selection
// order, downloading one (Windows only) as the last resort.
func Ensure(ctx context.Context, bundledPath, runtimeDir string, requiredMajor int, progressCb func(string)) (*Installation, error) {
	if inst := Resolve(bundledPath, runtimeDir, requiredMajor); inst != nil {
		return inst, nil
	}

	if runtime.GOOS != "windows" {
		return nil, RuntimeUnavailableError(requiredMajor)
	}

	dl := NewDownloader()
	javaPath, err := dl.DownloadRuntime(ctx, requiredMajor, runtimeDir, progressCb)
	if err != nil {
		return nil, core.NewError(core.KindRuntimeUnavailable, "downloading java runtime", err)
	}

	d := NewDetector()
	inst := d.checkJava(javaPath)
	if inst == nil {
		return nil, core.NewError(core.KindRuntimeUnavailable, "downloaded runtime failed version check", nil)
	}
	return inst, nil
}

// DownloadRuntime downloads and extracts the requested Java version.
// Returns the path to the java executable.
func (d *Downloader) DownloadRuntime(ctx context.Context, version int, destBaseDir string, progressCb func(string)) (string, error) {
	progressCb(fmt.Sprintf("Resolving Java %d...", version))
	downloadURL, filename, err := d.resolveAdoptiumURL(ctx, version)
	if err != nil {
		return "", fmt.Errorf("resolving java version: %w", err)
	}

	versionDir := ManagedRuntimeDir(destBaseDir, version)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return "", fmt.Errorf("creating dir: %w", err)
	}

	downloadPath := filepath.Join(versionDir, filename)

	progressCb(fmt.Sprintf("Downloading Java %d...", version))
	if err := d.downloadFile(ctx, downloadURL, downloadPath); err != nil {
		return "", fmt.Errorf("downloading file: %w", err)
	}
	defer os.Remove(downloadPath)

	progressCb("Extracting Java runtime...")
	if err := d.extractArchive(downloadPath, versionDir); err != nil {
		return "", fmt.Errorf("extracting archive: %w", err)
	}

	return d.FindJavaExecutable(versionDir)
}

func (d *Downloader) resolveAdoptiumURL(ctx context.Context, version int) (string, string, error) {
	osName := runtime.GOOS
	if osName == "darwin" {
		osName = "mac"
	}

	arch := runtime.GOARCH
	if arch == "amd64" {
		arch = "x64"
	} else if arch == "arm64" {
		arch = "aarch64"
	}

	url := fmt.Sprintf("https://api.adoptium.net/v3/assets/feature_releases/%d/ga?architecture=%s&heap_size=normal&image_type=jre&jvm_impl=hotspot&os=%s&page=0&page_size=1&project=jdk&sort_method=DEFAULT&sort_order=DESC&vendor=eclipse", version, arch, osName)

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", "", fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var releases []interface{}
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return "", "", err
	}

	if len(releases) == 0 {
		return "", "", fmt.Errorf("no releases found for java %d on %s/%s", version, osName, arch)
	}

	rel, ok := releases[0].(map[string]interface{})
	if !ok {
		return "", "", fmt.Errorf("unexpected adoptium response shape")
	}
	binaries, _ := rel["binaries"].([]interface{})
	if len(binaries) == 0 {
		return "", "", fmt.Errorf("no binaries in release")
	}
	binary, _ := binaries[0].(map[string]interface{})
	pkg, _ := binary["package"].(map[string]interface{})

	link, _ := pkg["link"].(string)
	name, _ := pkg["name"].(string)
	if link == "" {
		return "", "", fmt.Errorf("adoptium response missing download link")
	}

	return link, name, nil
}

func (d *Downloader) downloadFile(ctx context.Context, url, dest string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}

func (d *Downloader) extractArchive(src, dest string) error {
	if strings.HasSuffix(src, ".zip") {
		return d.extractZip(src, dest)
	}
	return d.extractTarGz(src, dest)
}

func (d *Downloader) extractTarGz(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		parts := strings.Split(header.Name, "/")
		if len(parts) <= 1 {
			continue
		}
		relPath := strings.Join(parts[1:], string(os.PathSeparator))
		if relPath == "" {
			continue
		}

		target := filepath.Join(dest, relPath)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			os.Symlink(header.Linkname, target)
		}
	}
	return nil
}

func (d *Downloader) extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		parts := strings.Split(f.Name, "/")
		if len(parts) <= 1 {
			continue
		}
		relPath := strings.Join(parts[1:], string(os.PathSeparator))
		if relPath == "" {
			continue
		}

		target := filepath.Join(dest, relPath)

		if f.FileInfo().IsDir() {
			os.MkdirAll(target, 0755)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}

		outFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			outFile.Close()
			return err
		}
		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// FindJavaExecutable walks dir looking for a bin/java(.exe) executable.
func (d *Downloader) FindJavaExecutable(dir string) (string, error) {
	binName := "java"
	if runtime.GOOS == "windows" {
		binName = "java.exe"
	}

	var foundPath string
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if foundPath != "" {
			return filepath.SkipDir
		}
		if info.Name() == binName && filepath.Base(filepath.Dir(path)) == "bin" {
			foundPath = path
			return filepath.SkipDir
		}
		return nil
	})

	if foundPath != "" {
		return foundPath, nil
	}
	return "", fmt.Errorf("java executable not found in %s", dir)
}
