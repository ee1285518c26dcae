// Package profile loads version JSON descriptors and merges a Fabric child
// profile onto its vanilla parent.
package profile

import "github.com/quasar/mctui/internal/core"

// Merge applies the profile inheritance merge rule: each scalar field keeps
// the child's value and takes the parent's only when the child's is absent;
// structured arguments are concatenated parent-first (the parent's are used
// whole when the child has none); libraries are concatenated parent-first,
// child-second, duplicates kept.
func Merge(parent, child *core.VersionDetails) *core.VersionDetails {
	if parent == nil {
		return child
	}
	if child == nil {
		return parent
	}

	merged := *child

	if merged.MainClass == "" {
		merged.MainClass = parent.MainClass
	}
	if merged.MinecraftArguments == "" && merged.Arguments == nil {
		merged.MinecraftArguments = parent.MinecraftArguments
		merged.Arguments = parent.Arguments
	} else if merged.Arguments != nil && parent.Arguments != nil {
		merged.Arguments = &core.Arguments{
			Game: append(append([]interface{}{}, parent.Arguments.Game...), child.Arguments.Game...),
			JVM:  append(append([]interface{}{}, parent.Arguments.JVM...), child.Arguments.JVM...),
		}
	}
	if merged.AssetIndex.ID == "" {
		merged.AssetIndex = parent.AssetIndex
	}
	if merged.Assets == "" {
		merged.Assets = parent.Assets
	}
	if merged.Downloads.Client == nil {
		merged.Downloads = parent.Downloads
	}
	if merged.JavaVersion.MajorVersion == 0 {
		merged.JavaVersion = parent.JavaVersion
	}
	if merged.Type == "" {
		merged.Type = parent.Type
	}

	merged.Libraries = append(append([]core.Library{}, parent.Libraries...), child.Libraries...)

	return &merged
}
