// Package mcargs expands Mojang's argument templates into a concrete JVM and
// game argument list, and assembles the final process command line.
package mcargs

import (
	"strings"

	"github.com/quasar/mctui/internal/core"
	"github.com/quasar/mctui/internal/rules"
)

// Placeholders maps ${name} tokens to substitution values. These keys must
// be populated before expansion:
// auth_player_name, version_name, game_directory, assets_root,
// assets_index_name, auth_uuid (dashed), auth_access_token, user_type,
// version_type, natives_directory, launcher_name, launcher_version,
// classpath_separator, classpath. auth_xuid is an optional extra the
// original client also substitutes when present, defaulting to empty.
type Placeholders map[string]string

func substitute(template string, ph Placeholders) string {
	var b strings.Builder
	i := 0
	for i < len(template) {
		start := strings.Index(template[i:], "${")
		if start < 0 {
			b.WriteString(template[i:])
			break
		}
		start += i
		b.WriteString(template[i:start])

		end := strings.Index(template[start:], "}")
		if end < 0 {
			b.WriteString(template[start:])
			break
		}
		end += start

		key := template[start+2 : end]
		if v, ok := ph[key]; ok {
			b.WriteString(v)
		} else if key == "auth_xuid" {
			b.WriteString("")
		} else {
			b.WriteString(template[start : end+1])
		}
		i = end + 1
	}
	return b.String()
}

// expandEntry expands one raw JSON-decoded argument template entry (either
// a plain string, or a map with "rules" and "value"). It returns zero or
// more resulting tokens.
func expandEntry(entry interface{}, ph Placeholders, features rules.Features) []string {
	switch v := entry.(type) {
	case string:
		return []string{substitute(v, ph)}
	case map[string]interface{}:
		ruleList, ok := parseRules(v["rules"])
		if ok && !rules.Allowed(ruleList, features) {
			return nil
		}
		switch value := v["value"].(type) {
		case string:
			return []string{substitute(value, ph)}
		case []interface{}:
			var out []string
			for _, item := range value {
				if s, ok := item.(string); ok {
					out = append(out, substitute(s, ph))
				}
			}
			return out
		default:
			return nil
		}
	default:
		return nil
	}
}

func parseRules(raw interface{}) ([]core.Rule, bool) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}

	var result []core.Rule
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		r := core.Rule{}
		if action, ok := m["action"].(string); ok {
			r.Action = action
		}
		if osRaw, ok := m["os"].(map[string]interface{}); ok {
			osRule := &core.OSRule{}
			if name, ok := osRaw["name"].(string); ok {
				osRule.Name = name
			}
			if ver, ok := osRaw["version"].(string); ok {
				osRule.Version = ver
			}
			if arch, ok := osRaw["arch"].(string); ok {
				osRule.Arch = arch
			}
			r.OS = osRule
		}
		if featRaw, ok := m["features"].(map[string]interface{}); ok {
			f := &core.Features{}
			for k, v := range featRaw {
				b, _ := v.(bool)
				if !b {
					continue
				}
				switch k {
				case "is_demo_user":
					f.IsDemoUser = true
				case "has_custom_resolution":
					f.HasCustomRes = true
				case "has_quick_plays_support":
					f.HasQuickPlaysup = true
				case "is_quick_play_singleplayer":
					f.IsQuickPlaySingle = true
				case "is_quick_play_multiplayer":
					f.IsQuickPlayMulti = true
				case "is_quick_play_realms":
					f.IsQuickPlayRealms = true
				}
			}
			r.Features = f
		}
		result = append(result, r)
	}
	return result, true
}

// ExpandList expands an ordered list of raw template entries into a flat
// token list.
func ExpandList(entries []interface{}, ph Placeholders, features rules.Features) []string {
	var out []string
	for _, e := range entries {
		out = append(out, expandEntry(e, ph, features)...)
	}
	return out
}

// ExpandLegacy splits a legacy minecraftArguments string on whitespace and
// substitutes placeholders per token.
func ExpandLegacy(minecraftArguments string, ph Placeholders) []string {
	fields := strings.Fields(minecraftArguments)
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = substitute(f, ph)
	}
	return out
}
