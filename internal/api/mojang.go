// Package api contains HTTP clients for external services.
// Each API client is self-contained and handles its own caching.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/quasar/mctui/internal/core"
)

// mojangVersionManifestURL is the piston-meta manifest endpoint.
var mojangVersionManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

// MojangClient handles Mojang piston-meta interactions: the version
// manifest and per-version detail JSON.
type MojangClient struct {
	client           *retryablehttp.Client
	manifest         *core.VersionManifest
	manifestFetched  time.Time
	manifestTTL      time.Duration
	versionCacheRoot string
}

// NewMojangClient creates a new Mojang API client with the launcher's
// standard 3-attempt, linear-backoff retry policy.
func NewMojangClient(dataDir string) *MojangClient {
	c := retryablehttp.NewClient()
	c.RetryMax = 2 // 3 attempts in total
	c.Backoff = retryablehttp.LinearJitterBackoff
	c.RetryWaitMin = 600 * time.Millisecond
	c.RetryWaitMax = 1800 * time.Millisecond
	c.HTTPClient.Timeout = 30 * time.Second
	c.Logger = nil

	return &MojangClient{
		client:           c,
		manifestTTL:      5 * time.Minute,
		versionCacheRoot: filepath.Join(dataDir, "cache", "versions"),
	}
}

// GetVersionManifest fetches the version manifest from Mojang, memoizing it
// in-process for manifestTTL so a launch that resolves "latest" and then
// looks up that version's URL doesn't round-trip twice.
func (c *MojangClient) GetVersionManifest(ctx context.Context) (*core.VersionManifest, error) {
	if c.manifest != nil && time.Since(c.manifestFetched) < c.manifestTTL {
		return c.manifest, nil
	}

	var manifest core.VersionManifest
	if err := c.getJSON(ctx, mojangVersionManifestURL, &manifest); err != nil {
		return nil, core.NewError(core.KindUpstreamUnavailable, "fetching version manifest", err)
	}

	c.manifest = &manifest
	c.manifestFetched = time.Now()

	return &manifest, nil
}

// GetVersionDetails fetches a version's own JSON descriptor from its
// manifest entry URL.
func (c *MojangClient) GetVersionDetails(ctx context.Context, version *core.Version) (*core.VersionDetails, error) {
	var details core.VersionDetails
	if err := c.getJSON(ctx, version.URL, &details); err != nil {
		return nil, core.NewError(core.KindUpstreamUnavailable, "fetching version json for "+version.ID, err)
	}
	return &details, nil
}

func (c *MojangClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.NewError(core.KindUpstreamUnavailable,
			"unexpected status "+http.StatusText(resp.StatusCode), nil)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// GetLatestRelease returns the latest release version ID
func (c *MojangClient) GetLatestRelease(ctx context.Context) (string, error) {
	manifest, err := c.GetVersionManifest(ctx)
	if err != nil {
		return "", err
	}
	return manifest.Latest.Release, nil
}

// GetLatestSnapshot returns the latest snapshot version ID
func (c *MojangClient) GetLatestSnapshot(ctx context.Context) (string, error) {
	manifest, err := c.GetVersionManifest(ctx)
	if err != nil {
		return "", err
	}
	return manifest.Latest.Snapshot, nil
}

// FindVersion finds a version by ID in the manifest
func (c *MojangClient) FindVersion(ctx context.Context, id string) (*core.Version, error) {
	manifest, err := c.GetVersionManifest(ctx)
	if err != nil {
		return nil, err
	}

	for _, v := range manifest.Versions {
		if v.ID == id {
			return &v, nil
		}
	}

	return nil, fmt.Errorf("version not found: %s", id)
}

// ResolveVersionDetails resolves version details with a minimal disk cache.
// If offline is true, it only reads from disk.
func (c *MojangClient) ResolveVersionDetails(ctx context.Context, versionID string, offline bool) (*core.VersionDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offline {
		return c.loadVersionDetails(versionID)
	}

	version, err := c.FindVersion(ctx, versionID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	details, err := c.GetVersionDetails(ctx, version)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	_ = c.saveVersionDetails(versionID, details)

	return details, nil
}

func (c *MojangClient) loadVersionDetails(versionID string) (*core.VersionDetails, error) {
	path := c.versionDetailsPath(versionID)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var details core.VersionDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, fmt.Errorf("decoding cached version details: %w", err)
	}

	return &details, nil
}

func (c *MojangClient) saveVersionDetails(versionID string, details *core.VersionDetails) error {
	if details == nil {
		return nil
	}

	if err := os.MkdirAll(c.versionCacheRoot, 0o755); err != nil {
		return err
	}

	path := c.versionDetailsPath(versionID)
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encoding version details: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func (c *MojangClient) versionDetailsPath(versionID string) string {
	return filepath.Join(c.versionCacheRoot, fmt.Sprintf("%s.json", versionID))
}
