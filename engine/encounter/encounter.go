// Package encounter draws random events on movement. A draw below the
// threshold picks one entry from the catalogue by weight; the entry's
// signed delta becomes damage or heal effects so the player's clamps apply.
package encounter

import (
	"github.com/nathoo/delve/types"
)

// DefaultThreshold is the chance of an encounter on a qualifying move.
const DefaultThreshold = 0.30

// Source is the randomness an encounter draw needs. engine.RNG satisfies it.
type Source interface {
	Float64() float64
	Roll(sides int) int
	WeightedSelect(weights []int) int
}

// Generator holds the catalogue and the draw threshold.
type Generator struct {
	Threshold float64
	Catalogue []types.EncounterDef
	Source    Source
}

// New creates a generator. A threshold of 0 disables encounters; one
// outside [0, 1] falls back to DefaultThreshold.
func New(threshold float64, catalogue []types.EncounterDef, src Source) *Generator {
	if threshold < 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Generator{Threshold: threshold, Catalogue: catalogue, Source: src}
}

// Draw samples one encounter. The second return is false when nothing
// happens. The returned def has its delta resolved to a single value.
func (g *Generator) Draw() (types.EncounterDef, bool) {
	if g == nil || g.Source == nil || len(g.Catalogue) == 0 {
		return types.EncounterDef{}, false
	}
	if g.Source.Float64() >= g.Threshold {
		return types.EncounterDef{}, false
	}

	weights := make([]int, len(g.Catalogue))
	for i, def := range g.Catalogue {
		weights[i] = max(def.Weight, 1)
	}
	def := g.Catalogue[g.Source.WeightedSelect(weights)]

	if def.DeltaMax > def.Delta {
		def.Delta += g.Source.Roll(def.DeltaMax-def.Delta+1) - 1
	}
	def.DeltaMax = 0
	return def, true
}

// Effects converts a drawn encounter into effects. The text always comes
// first; damage and healing go through their own effects, never a raw write.
func Effects(def types.EncounterDef) []types.Effect {
	var effs []types.Effect
	if def.Text != "" {
		effs = append(effs, types.Effect{
			Type:   "say",
			Params: map[string]any{"text": def.Text},
		})
	}
	switch {
	case def.Delta > 0:
		effs = append(effs, types.Effect{
			Type:   "damage",
			Params: map[string]any{"amount": def.Delta},
		})
	case def.Delta < 0:
		effs = append(effs, types.Effect{
			Type:   "heal",
			Params: map[string]any{"amount": -def.Delta},
		})
	}
	if def.Gold != 0 {
		effs = append(effs, types.Effect{
			Type:   "add_gold",
			Params: map[string]any{"amount": def.Gold},
		})
	}
	return effs
}
