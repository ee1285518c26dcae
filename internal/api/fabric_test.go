package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func withFabricMetaServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	old := fabricMetaBase
	fabricMetaBase = srv.URL
	t.Cleanup(func() { fabricMetaBase = old })
}

func TestFabricClient_LoadersOrdersStableFirst(t *testing.T) {
	withFabricMetaServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"loader": {"version": "0.15.0-beta", "stable": false}},
			{"loader": {"version": "0.15.11", "stable": true}},
			{"loader": {"version": "0.14.9", "stable": true}}
		]`))
	})

	c := NewFabricClient()
	loaders, err := c.Loaders(context.Background(), "1.21.4")
	if err != nil {
		t.Fatalf("Loaders failed: %v", err)
	}
	if len(loaders) != 3 {
		t.Fatalf("expected 3 loaders, got %d", len(loaders))
	}
	if !loaders[0].Stable || !loaders[1].Stable {
		t.Error("expected stable loaders first")
	}
	if loaders[2].Stable {
		t.Error("expected unstable loader last")
	}
}

func TestFabricClient_ProfileRetriesAfter429(t *testing.T) {
	attempts := 0
	withFabricMetaServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"id": "fabric-loader-0.15.11-1.21.4"}`))
	})

	c := NewFabricClient()
	var out struct {
		ID string `json:"id"`
	}
	if err := c.Profile(context.Background(), "1.21.4", "0.15.11", "1.0.1", &out); err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if out.ID != "fabric-loader-0.15.11-1.21.4" {
		t.Errorf("got %q", out.ID)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts (429 then success), got %d", attempts)
	}
}
