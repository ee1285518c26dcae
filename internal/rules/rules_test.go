package rules

import (
	"testing"

	"github.com/quasar/mctui/internal/core"
)

func TestAllowed_EmptyList(t *testing.T) {
	if !Allowed(nil, nil) {
		t.Error("empty rule list should allow")
	}
}

func TestAllowed_SingleAllowRuleDefaultsToDeny(t *testing.T) {
	thisOS := currentOS()
	rules := []core.Rule{{Action: "allow", OS: &core.OSRule{Name: "some-other-os"}}}
	if Allowed(rules, nil) {
		t.Error("non-matching allow rule should leave state denied")
	}

	rules = []core.Rule{{Action: "allow", OS: &core.OSRule{Name: thisOS}}}
	if !Allowed(rules, nil) {
		t.Error("matching allow rule should flip state to allowed")
	}
}

func TestAllowed_LaterRuleOverrides(t *testing.T) {
	thisOS := currentOS()
	rules := []core.Rule{
		{Action: "allow"},
		{Action: "disallow", OS: &core.OSRule{Name: thisOS}},
	}
	if Allowed(rules, nil) {
		t.Error("later disallow rule matching current OS should win")
	}
}

func TestAllowed_FeatureGate(t *testing.T) {
	rules := []core.Rule{
		{Action: "allow", Features: &core.Features{IsDemoUser: true}},
	}
	if Allowed(rules, Features{"is_demo_user": false}) {
		t.Error("feature rule should not match when feature is false")
	}
	if !Allowed(rules, Features{"is_demo_user": true}) {
		t.Error("feature rule should match when feature is true")
	}
}

func TestForLoader(t *testing.T) {
	if ForLoader(core.LoaderVanilla)["is_modded"] {
		t.Error("vanilla should not be modded")
	}
	if !ForLoader(core.LoaderFabric)["is_modded"] {
		t.Error("fabric should be modded")
	}
}
