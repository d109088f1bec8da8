// Package integration provides named run profiles and the helpers that merge
// them into a run configuration. Presets bundle the settings that usually
// change together (network size, run length, consensus rules, genesis
// source, telemetry) into named profiles (lite, default, peercoin, coinage)
// so experiments can be started without tweaking a dozen flags.
//
// Usage:
//
//	p := integration.LitePreset()     // for a quick local check
//	p := integration.PeercoinPreset() // for a Peercoin-scale experiment
//	p.Apply(&simCfg, &genesisCfg)
//
// Each preset returns a PresetConfig struct that the launcher merges into its
// defaults before the config file and command line flags are applied.
package integration

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-stakesim/simulator"
	"github.com/rony4d/go-stakesim/stakesim"
	"github.com/rony4d/go-stakesim/stakesim/genesis"
)

// PresetConfig captures the parameters that vary across preset profiles.
// It leaves out what is always tuned per experiment (the seed, the output
// paths) so presets focus on scale and consensus trade-offs.
type PresetConfig struct {
	Name          string         // human-readable identifier (e.g., "lite", "peercoin")
	Nodes         int            // number of simulated nodes, one account each
	EndHeight     idx.Block      // stop once any head reaches this height
	Rules         string         // consensus rules preset, see stakesim.RulesByName
	Genesis       genesis.Source // where the initial allocations come from
	GenesisAge    uint64         // starting age of every account, in blocks
	StoreCacheMB  int            // leveldb block cache of the record store
	EnableMetrics bool           // whether to expose prometheus metrics while running
	VerboseEvents bool           // whether to log every adoption and rejection, not only mints
}

// DefaultPreset is the profile used when none is named.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:          "default",
		Nodes:         100,                    // enough for forks to appear regularly
		EndHeight:     100,                    // a few minutes of wall clock at most
		Rules:         "fake",                 // ten second blocks keep runs short
		Genesis:       genesis.SourceGaussian, // uneven stake makes the correlation meaningful
		GenesisAge:    1,                      // the fake rules have no low cap
		StoreCacheMB:  16,                     // records are small and written once
		EnableMetrics: false,                  // no endpoint unless asked for
		VerboseEvents: false,                  // adoption events grow with nodes x blocks
	}
}

// LitePreset returns a tiny profile for development and CI. It trades
// statistical meaning for a run that finishes in well under a second.
//
// Use cases:
//   - Smoke-testing a build
//   - Reading the full event stream by eye
//
// Trade-offs:
//   - Too few blocks for stable interval statistics
//   - Equal static stakes leave the stake correlation undefined
func LitePreset() PresetConfig {
	cfg := DefaultPreset()             // start with balanced defaults
	cfg.Name = "lite"                  // set preset identifier for logging/config dumps
	cfg.Nodes = 20                     // small enough to follow individual nodes
	cfg.EndHeight = 20                 // a handful of retargets
	cfg.Genesis = genesis.SourceStatic // equal stakes, no randomness before the run
	cfg.StoreCacheMB = 4               // minimal cache for throwaway stores
	cfg.VerboseEvents = true           // the stream stays small at this scale
	return cfg
}

// PeercoinPreset returns a profile with Peercoin's timing and coin-day-weight
// window on a network of a few hundred nodes.
//
// Use cases:
//   - Measuring orphan rates under realistic block intervals
//   - Comparing against CoinAgePreset with the same seed
//
// Trade-offs:
//   - Accounts start at the high cap, so the first blocks behave as if the
//     network had been running for months
//   - Runs take minutes rather than seconds
func PeercoinPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "peercoin"
	cfg.Nodes = 300           // a mid-sized public network
	cfg.EndHeight = 1000      // about a week of ten minute blocks
	cfg.Rules = "peercoin"    // ten minute blocks, daily retarget, 30..90 day window
	cfg.GenesisAge = 90 * 144 // past the low cap, or nobody could mint for 30 days
	cfg.StoreCacheMB = 64     // many more records per run
	cfg.EnableMetrics = true  // long runs are worth watching
	return cfg
}

// CoinAgePreset is PeercoinPreset with the uncapped coin-age rules, so the
// two variants can be compared run for run.
func CoinAgePreset() PresetConfig {
	cfg := PeercoinPreset()
	cfg.Name = "coinage"
	cfg.Rules = "coinage" // difficulty tracks total coin-age, no lookback
	return cfg
}

// PresetNames lists every preset GetPresetByName knows.
func PresetNames() []string {
	return []string{"default", "lite", "peercoin", "coinage"}
}

// GetPresetByName looks up a preset by its string identifier and returns the
// corresponding PresetConfig. Returns an error if the name is unrecognized.
// This helper enables CLI flags like --preset=lite to select configurations
// dynamically.
//
// Example:
//
//	preset, err := integration.GetPresetByName("lite")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "lite":
		return LitePreset(), nil
	case "peercoin":
		return PeercoinPreset(), nil
	case "coinage":
		return CoinAgePreset(), nil
	case "default":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: %v)", name, PresetNames())
	}
}

// ApplyPreset merges a preset configuration into an existing preset.
// Non-zero fields of preset override the corresponding values in target,
// so a partial preset can be layered over a full one.
//
// Example:
//
//	p := integration.DefaultPreset()
//	integration.ApplyPreset(&p, integration.PresetConfig{Nodes: 50})
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.Nodes > 0 {
		target.Nodes = preset.Nodes
	}
	if preset.EndHeight > 0 {
		target.EndHeight = preset.EndHeight
	}
	if preset.Rules != "" {
		target.Rules = preset.Rules
	}
	if preset.Genesis != "" {
		target.Genesis = preset.Genesis
	}
	if preset.GenesisAge > 0 {
		target.GenesisAge = preset.GenesisAge
	}
	if preset.StoreCacheMB > 0 {
		target.StoreCacheMB = preset.StoreCacheMB
	}
	// boolean flags are always applied (no zero-value check needed)
	target.EnableMetrics = preset.EnableMetrics
	target.VerboseEvents = preset.VerboseEvents
	if preset.Name != "" {
		target.Name = preset.Name
	}
}

// Apply writes the preset into a simulation and a genesis config. Fields the
// preset does not cover are left untouched.
func (p PresetConfig) Apply(sim *simulator.Config, gen *genesis.Config) error {
	rules, err := stakesim.RulesByName(p.Rules)
	if err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	sim.Rules = rules
	sim.Nodes = p.Nodes
	sim.EndHeight = p.EndHeight
	gen.Source = p.Genesis
	gen.Age = p.GenesisAge
	gen.AgeMean = float64(p.GenesisAge)
	return nil
}
