package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quasar/mctui/internal/api"
	"github.com/quasar/mctui/internal/core"
)

type fakeMojangSource struct {
	details *core.VersionDetails
	err     error
}

func (f *fakeMojangSource) ResolveVersionDetails(ctx context.Context, versionID string, offline bool) (*core.VersionDetails, error) {
	return f.details, f.err
}

func TestLoader_Load_VanillaPassthrough(t *testing.T) {
	vanilla := &core.VersionDetails{MainClass: "net.minecraft.client.main.Main"}
	l := New(&fakeMojangSource{details: vanilla}, api.NewFabricClient())

	got, err := l.Load(context.Background(), "1.21.4", core.LoaderVanilla, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != vanilla {
		t.Errorf("expected vanilla details returned verbatim")
	}
}

func TestLoader_Load_FabricMergesOntoParent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/versions/loader/1.21.4":
			w.Write([]byte(`[{"loader": {"version": "0.15.11", "stable": true}}]`))
		case r.URL.Path == "/versions/installer":
			w.Write([]byte(`[{"version": "1.0.1", "stable": true}]`))
		case r.URL.Path == "/versions/loader/1.21.4/0.15.11/1.0.1/profile/json":
			w.Write([]byte(`{"mainClass": "net.fabricmc.loader.impl.launch.knot.KnotClient", "libraries": [{"name": "fabric-loader"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	fabric := api.NewFabricClientWithBase(srv.URL)

	vanilla := &core.VersionDetails{
		MainClass: "net.minecraft.client.main.Main",
		Assets:    "1.21",
		Libraries: []core.Library{{Name: "parent-lib"}},
	}
	l := New(&fakeMojangSource{details: vanilla}, fabric)

	got, err := l.Load(context.Background(), "1.21.4", core.LoaderFabric, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.MainClass != "net.fabricmc.loader.impl.launch.knot.KnotClient" {
		t.Errorf("expected fabric main class to win, got %q", got.MainClass)
	}
	if got.Assets != "1.21" {
		t.Errorf("expected parent assets to survive merge, got %q", got.Assets)
	}
	if len(got.Libraries) != 2 || got.Libraries[0].Name != "parent-lib" || got.Libraries[1].Name != "fabric-loader" {
		t.Errorf("expected parent-first library concatenation, got %v", got.Libraries)
	}
}

func TestLoader_Load_FabricExhaustionBuildsHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/versions/loader/1.21.4":
			w.Write([]byte(`[{"loader": {"version": "0.15.11", "stable": true}}]`))
		case r.URL.Path == "/versions/installer":
			w.Write([]byte(`[{"version": "1.0.1", "stable": true}]`))
		case r.URL.Path == "/versions/game":
			w.Write([]byte(`[{"version": "1.21.5", "stable": true}, {"version": "1.21.4", "stable": true}, {"version": "1.20.1", "stable": true}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	fabric := api.NewFabricClientWithBase(srv.URL)

	vanilla := &core.VersionDetails{MainClass: "net.minecraft.client.main.Main"}
	l := New(&fakeMojangSource{details: vanilla}, fabric)

	_, err := l.Load(context.Background(), "1.21.4", core.LoaderFabric, false)
	if core.KindOf(err) != core.KindUpstreamIncompatible {
		t.Fatalf("expected UpstreamIncompatible, got %v", err)
	}
	if err == nil || !containsAll(err.Error(), "1.21.4", "1.21.5") {
		t.Errorf("expected hint with matching versions, got %v", err)
	}
}

func TestLoader_Load_FabricOfflineIsRejected(t *testing.T) {
	vanilla := &core.VersionDetails{MainClass: "net.minecraft.client.main.Main"}
	l := New(&fakeMojangSource{details: vanilla}, api.NewFabricClient())

	_, err := l.Load(context.Background(), "1.21.4", core.LoaderFabric, true)
	if core.KindOf(err) != core.KindUpstreamUnavailable {
		t.Fatalf("expected UpstreamUnavailable, got %v", err)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !contains(s, sub) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (s == sub || len(sub) == 0 || indexOf(s, sub) >= 0)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
