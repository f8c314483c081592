package rules

import (
	"path/filepath"
	"strings"
)

// Tier is an architectural layer a file belongs to, derived from its
// directory path.
type Tier string

const (
	TierEntry          Tier = "entry"
	TierOrchestration  Tier = "orchestration"
	TierImplementation Tier = "implementation"
	TierUnknown        Tier = ""
)

// defaultTiers maps well-known directory names to tiers. A project's
// registry entry can override these per directory.
var defaultTiers = map[string]Tier{
	"bin":           TierEntry,
	"scripts":       TierEntry,
	"cli":           TierEntry,
	"router":        TierOrchestration,
	"routers":       TierOrchestration,
	"commands":      TierOrchestration,
	"flows":         TierOrchestration,
	"orchestration": TierOrchestration,
	"lib":           TierImplementation,
	"core":          TierImplementation,
	"impl":          TierImplementation,
	"services":      TierImplementation,
	"modules":       TierImplementation,
}

// classifyTier determines the tier of a file from its relative path. The
// most specific (deepest) matching directory wins. overrides come from the
// project registry entry and take precedence over the defaults.
func classifyTier(relPath string, overrides map[string]string) Tier {
	segments := strings.Split(filepath.ToSlash(filepath.Dir(relPath)), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if t, ok := overrides[seg]; ok {
			return Tier(t)
		}
		if t, ok := defaultTiers[seg]; ok {
			return t
		}
	}
	return TierUnknown
}

// tierOfModule classifies an imported module path the same way, so
// "widgets.routers.dispatch" counts as an orchestration-tier import.
func tierOfModule(module string, overrides map[string]string) Tier {
	for _, seg := range strings.Split(module, ".") {
		if t, ok := overrides[seg]; ok {
			return Tier(t)
		}
		if t, ok := defaultTiers[seg]; ok {
			return t
		}
	}
	return TierUnknown
}
