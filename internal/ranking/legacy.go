package ranking

import "strings"

// legacyTiers maps the retired five-tier naming to the current tiers. The
// old scheme had no shelf for under-rated images, so legacy data never maps
// to TierNewest. Applied once at ingestion of externally-tagged data, never
// inside classification.
var legacyTiers = map[string]Tier{
	"top":     TierElite,
	"great":   TierBeautiful,
	"average": TierAverage,
	"poor":    TierBelowAverage,
	"bottom":  TierNeedsWork,
}

// FromLegacy resolves an external tier tag: current names pass through,
// retired names are remapped, anything else is rejected.
func FromLegacy(tag string) (Tier, bool) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if t := Tier(normalized); t.Valid() {
		return t, true
	}
	if t, ok := legacyTiers[normalized]; ok {
		return t, true
	}
	return "", false
}
