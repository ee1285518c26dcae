package libraries

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasar/mctui/internal/core"
)

func TestFetch_MojangArtifactWinsOverMavenName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jar bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	libDir := filepath.Join(dir, "libraries")
	nativesDir := filepath.Join(dir, "natives")

	details := &core.VersionDetails{
		Libraries: []core.Library{
			{
				Name: "com.example:widget:1.0.0", // would resolve elsewhere if Artifact were absent
				Downloads: &core.LibraryDownloads{
					Artifact: &core.Artifact{
						Path: "com/example/widget/1.0.0/widget-1.0.0.jar",
						URL:  srv.URL + "/widget.jar",
						Size: 9,
					},
				},
			},
		},
	}

	result, err := Fetch(context.Background(), libDir, nativesDir, details, core.LoaderVanilla)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Classpath) != 1 {
		t.Fatalf("expected 1 classpath entry, got %d", len(result.Classpath))
	}
	want := filepath.Join(libDir, "com/example/widget/1.0.0/widget-1.0.0.jar")
	if result.Classpath[0] != want {
		t.Fatalf("expected %s, got %s", want, result.Classpath[0])
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected jar at %s: %v", want, err)
	}
}

func TestFetch_SkipsLibrariesExcludedByRules(t *testing.T) {
	details := &core.VersionDetails{
		Libraries: []core.Library{
			{
				Name: "com.example:only-windows:1.0.0",
				Rules: []core.Rule{
					{Action: "allow", OS: &core.OSRule{Name: "some-os-that-does-not-exist"}},
				},
				Downloads: &core.LibraryDownloads{
					Artifact: &core.Artifact{Path: "should-not-fetch.jar", URL: "http://localhost:0/bad"},
				},
			},
		},
	}

	dir := t.TempDir()
	result, err := Fetch(context.Background(), filepath.Join(dir, "libraries"), filepath.Join(dir, "natives"), details, core.LoaderVanilla)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Classpath) != 0 {
		t.Fatalf("expected library excluded by os rule to be skipped, got %v", result.Classpath)
	}
}
