package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/quasar/mctui/internal/api"
	"github.com/quasar/mctui/internal/core"
)

// MojangSource is the subset of api.MojangClient the loader needs.
type MojangSource interface {
	ResolveVersionDetails(ctx context.Context, versionID string, offline bool) (*core.VersionDetails, error)
}

// Loader resolves the merged version JSON to launch for an instance.
type Loader struct {
	mojang MojangSource
	fabric *api.FabricClient
}

// New builds a Loader.
func New(mojang MojangSource, fabric *api.FabricClient) *Loader {
	return &Loader{mojang: mojang, fabric: fabric}
}

// Load resolves the version JSON for versionID under the given loader. For
// vanilla, the vanilla profile is used directly. For fabric, it walks the
// loader/installer candidate search and merges the winning profile onto the
// vanilla parent.
func (l *Loader) Load(ctx context.Context, versionID string, loader core.LoaderType, offline bool) (*core.VersionDetails, error) {
	parent, err := l.mojang.ResolveVersionDetails(ctx, versionID, offline)
	if err != nil {
		return nil, core.NewError(core.KindUpstreamUnavailable, "loading vanilla version json for "+versionID, err)
	}

	if loader == core.LoaderVanilla {
		return parent, nil
	}

	if offline {
		return nil, core.NewError(core.KindUpstreamUnavailable, "fabric profile resolution requires network access", nil)
	}

	child, err := l.resolveFabricProfile(ctx, versionID)
	if err != nil {
		return nil, err
	}

	return Merge(parent, child), nil
}

func (l *Loader) resolveFabricProfile(ctx context.Context, mcVersion string) (*core.VersionDetails, error) {
	loaders, err := l.fabric.Loaders(ctx, mcVersion)
	if err != nil {
		return nil, core.NewError(core.KindUpstreamUnavailable, "fetching fabric loader list", err)
	}
	if len(loaders) == 0 {
		return nil, l.noFabricSupportError(ctx, mcVersion)
	}

	installers, err := l.fabric.Installers(ctx)
	if err != nil {
		return nil, core.NewError(core.KindUpstreamUnavailable, "fetching fabric installer list", err)
	}

	for _, ld := range loaders {
		for _, inst := range installers {
			var details core.VersionDetails
			if err := l.fabric.Profile(ctx, mcVersion, ld.Version, inst.Version, &details); err == nil {
				return &details, nil
			}
		}
	}

	for _, ld := range loaders {
		var details core.VersionDetails
		if err := l.fabric.ProfileWithoutInstaller(ctx, mcVersion, ld.Version, &details); err == nil {
			return &details, nil
		}
	}

	return nil, l.noFabricSupportError(ctx, mcVersion)
}

// noFabricSupportError builds the failure returned when no loader/installer
// combination works, hinting up to 5 recent Fabric-supported versions
// sharing mcVersion's major.minor prefix.
func (l *Loader) noFabricSupportError(ctx context.Context, mcVersion string) error {
	msg := fmt.Sprintf("no fabric loader/installer combination succeeded for %s", mcVersion)

	prefix := majorMinor(mcVersion)
	if prefix != "" {
		if versions, err := l.fabric.GameVersions(ctx); err == nil {
			var hints []string
			for _, v := range versions {
				if strings.HasPrefix(v, prefix) {
					hints = append(hints, v)
				}
				if len(hints) == 5 {
					break
				}
			}
			if len(hints) > 0 {
				msg += fmt.Sprintf("; recent fabric-supported %s.x versions: %s", prefix, strings.Join(hints, ", "))
			}
		}
	}

	return core.NewError(core.KindUpstreamIncompatible, msg, nil)
}

func majorMinor(v string) string {
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "." + parts[1]
}
