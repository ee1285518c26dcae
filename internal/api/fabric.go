// Package api contains HTTP clients for external services.
// Each API client is self-contained and handles its own caching.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var fabricMetaBase = "https://meta.fabricmc.net/v2"

// FabricClient talks to the Fabric meta server's loader/installer/profile
// endpoints.
type FabricClient struct {
	client *retryablehttp.Client
	base   string
}

// NewFabricClient creates a new Fabric meta client.
func NewFabricClient() *FabricClient {
	return NewFabricClientWithBase(fabricMetaBase)
}

// NewFabricClientWithBase creates a Fabric meta client against a custom base
// URL, used by tests and by deployments pointing at a mirror.
func NewFabricClientWithBase(base string) *FabricClient {
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.RetryMax = 3
	return &FabricClient{client: c, base: base}
}

// LoaderEntry is one entry of the per-Minecraft-version loader list.
type LoaderEntry struct {
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

// InstallerEntry is one entry of the installer list.
type InstallerEntry struct {
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

// Loaders fetches the loader versions compatible with mcVersion, ordered
// stable-first, then unstable, each partition in upstream order, capped at
// 12.
func (c *FabricClient) Loaders(ctx context.Context, mcVersion string) ([]LoaderEntry, error) {
	url := fmt.Sprintf("%s/versions/loader/%s", c.base, mcVersion)

	var raw []struct {
		Loader LoaderEntry `json:"loader"`
	}
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}

	entries := make([]LoaderEntry, len(raw))
	for i, r := range raw {
		entries[i] = r.Loader
	}

	return partitionStableFirst(entries, 12), nil
}

// Installers fetches installer versions, ordered stable-first then
// unstable, capped at 10.
func (c *FabricClient) Installers(ctx context.Context) ([]InstallerEntry, error) {
	url := fmt.Sprintf("%s/versions/installer", c.base)

	var raw []InstallerEntry
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}

	return partitionInstallersStableFirst(raw, 10), nil
}

// Profile fetches the merged Fabric profile JSON for a (mcVersion, loader,
// installer) triple, honoring a capped Retry-After on 429.
func (c *FabricClient) Profile(ctx context.Context, mcVersion, loaderVersion, installerVersion string, out interface{}) error {
	url := fmt.Sprintf("%s/versions/loader/%s/%s/%s/profile/json", c.base, mcVersion, loaderVersion, installerVersion)
	return c.getJSONWithRetryAfter(ctx, url, out)
}

// ProfileWithoutInstaller is the installer-less fallback endpoint.
func (c *FabricClient) ProfileWithoutInstaller(ctx context.Context, mcVersion, loaderVersion string, out interface{}) error {
	url := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json", c.base, mcVersion, loaderVersion)
	return c.getJSONWithRetryAfter(ctx, url, out)
}

// GameVersions fetches the list of Minecraft versions Fabric supports, most
// recent first, used to build the "latest supported versions" hint when
// profile resolution exhausts every loader/installer candidate.
func (c *FabricClient) GameVersions(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/versions/game", c.base)

	var raw []struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	}
	if err := c.getJSON(ctx, url, &raw); err != nil {
		return nil, err
	}

	versions := make([]string, len(raw))
	for i, r := range raw {
		versions[i] = r.Version
	}
	return versions, nil
}

func (c *FabricClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *FabricClient) getJSONWithRetryAfter(ctx context.Context, url string, out interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		wait := 10 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs < 10 {
				wait = time.Duration(secs) * time.Second
			}
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}

		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err = c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", url, err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func partitionStableFirst(entries []LoaderEntry, limit int) []LoaderEntry {
	var stable, unstable []LoaderEntry
	for _, e := range entries {
		if e.Stable {
			stable = append(stable, e)
		} else {
			unstable = append(unstable, e)
		}
	}
	result := append(stable, unstable...)
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

func partitionInstallersStableFirst(entries []InstallerEntry, limit int) []InstallerEntry {
	var stable, unstable []InstallerEntry
	for _, e := range entries {
		if e.Stable {
			stable = append(stable, e)
		} else {
			unstable = append(unstable, e)
		}
	}
	result := append(stable, unstable...)
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
