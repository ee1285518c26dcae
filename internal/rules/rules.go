// Package rules evaluates Mojang's OS/feature-gated rule lists, the same
// allow/deny shape used to filter libraries and argument templates.
package rules

import (
	"runtime"

	"github.com/quasar/mctui/internal/core"
)

// Features is the feature map a rule's "features" block is checked against.
// Missing keys default to false.
type Features map[string]bool

// ForLoader builds the feature map the rule engine checks rules against:
// the only feature currently surfaced is is_modded, true iff the loader is
// fabric.
func ForLoader(loader core.LoaderType) Features {
	return Features{"is_modded": loader == core.LoaderFabric}
}

// currentOS returns the Mojang-style OS name for GOOS.
func currentOS() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "osx"
	default:
		return "linux"
	}
}

// Allowed evaluates an ordered rule list against the current OS and a
// feature map: an empty list allows; the initial state is denied if
// any rule allows, otherwise allowed; each matching rule's action overwrites
// the running state, in order, and the final state wins.
func Allowed(ruleList []core.Rule, features Features) bool {
	if len(ruleList) == 0 {
		return true
	}

	state := true
	for _, r := range ruleList {
		if r.Action == "allow" {
			state = false
			break
		}
	}

	os := currentOS()
	for _, r := range ruleList {
		if r.OS != nil && r.OS.Name != "" && r.OS.Name != os {
			continue
		}
		if r.Features != nil && !featuresMatch(r.Features, features) {
			continue
		}
		state = r.Action == "allow"
	}

	return state
}

func featuresMatch(declared *core.Features, actual Features) bool {
	check := func(key string, want bool) bool {
		return actual[key] == want
	}
	if declared.IsDemoUser && !check("is_demo_user", true) {
		return false
	}
	if declared.HasCustomRes && !check("has_custom_resolution", true) {
		return false
	}
	if declared.HasQuickPlaysup && !check("has_quick_plays_support", true) {
		return false
	}
	if declared.IsQuickPlaySingle && !check("is_quick_play_singleplayer", true) {
		return false
	}
	if declared.IsQuickPlayMulti && !check("is_quick_play_multiplayer", true) {
		return false
	}
	if declared.IsQuickPlayRealms && !check("is_quick_play_realms", true) {
		return false
	}
	return true
}
