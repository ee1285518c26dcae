package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func withMojangManifestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	old := mojangVersionManifestURL
	mojangVersionManifestURL = srv.URL
	t.Cleanup(func() { mojangVersionManifestURL = old })
	return srv
}

func TestMojangClient_GetLatestReleaseAndVersionDetails(t *testing.T) {
	var detailsURL string
	srv := withMojangManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"latest": {"release": "1.21.1", "snapshot": "1.21.2-rc1"},
			"versions": [
				{"id": "1.21.1", "type": "release", "url": "` + detailsURL + `"}
			]
		}`))
	})
	detailsURL = srv.URL

	dataDir := t.TempDir()
	c := NewMojangClient(dataDir)

	release, err := c.GetLatestRelease(context.Background())
	if err != nil {
		t.Fatalf("GetLatestRelease failed: %v", err)
	}
	if release != "1.21.1" {
		t.Errorf("got %q, want 1.21.1", release)
	}

	v, err := c.FindVersion(context.Background(), "1.21.1")
	if err != nil {
		t.Fatalf("FindVersion failed: %v", err)
	}
	if v.URL != srv.URL {
		t.Errorf("version URL = %q, want %q", v.URL, srv.URL)
	}
}

func TestMojangClient_GetVersionManifestIsMemoized(t *testing.T) {
	calls := 0
	withMojangManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"latest": {"release": "1.21.1", "snapshot": "1.21.2-rc1"}, "versions": []}`))
	})

	c := NewMojangClient(t.TempDir())
	ctx := context.Background()

	if _, err := c.GetVersionManifest(ctx); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := c.GetVersionManifest(ctx); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected manifest to be cached, got %d network calls", calls)
	}
}

func TestMojangClient_FindVersionNotFound(t *testing.T) {
	withMojangManifestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latest": {"release": "1.21.1", "snapshot": "1.21.2-rc1"}, "versions": []}`))
	})

	c := NewMojangClient(t.TempDir())
	if _, err := c.FindVersion(context.Background(), "1.0.0"); err == nil {
		t.Error("expected error for unknown version id")
	}
}
