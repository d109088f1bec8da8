// This file maps the CLI context and the optional YAML file to the launcher
// config.

package launcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/rony4d/go-stakesim/integration"
	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/simulator"
	"github.com/rony4d/go-stakesim/stakesim"
	"github.com/rony4d/go-stakesim/stakesim/genesis"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Preset     string           `yaml:"preset"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Simulation simulator.Config `yaml:"simulation"`
	Genesis    genesis.Config   `yaml:"genesis"`
	Output     OutputConfig     `yaml:"output"`
	Sweep      SweepConfig      `yaml:"sweep"`
}

type LoggingConfig struct {
	Verbosity int    `yaml:"verbosity"`
	Format    string `yaml:"format"`
	Color     bool   `yaml:"color"`
	SentryDSN string `yaml:"sentryDsn"`
}

type MetricsConfig struct {
	Enable bool   `yaml:"enable"`
	Addr   string `yaml:"addr"`
}

type OutputConfig struct {
	EventsFile    string `yaml:"events"`
	VerboseEvents bool   `yaml:"eventsVerbose"`
	StorePath     string `yaml:"store"`
	StoreCacheMB  int    `yaml:"storeCache"`
	SummaryFile   string `yaml:"summary"`
}

type SweepConfig struct {
	Seeds   []int64 `yaml:"seeds"`
	Workers int     `yaml:"workers"`
}

// MakeAllConfigs merges defaults, the preset, the optional config file, and
// CLI overrides into a single config struct.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	f := flagReader{ctx}
	cfg := defaultConfig()

	if f.isSet("preset") {
		if err := applyPreset(&cfg, f.string("preset")); err != nil {
			return cfg, err
		}
	}

	if file := f.string("config"); file != "" {
		if err := loadConfigFile(resolvePath(file), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	if err := applyCLIOverrides(f, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Simulation.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------
// Config-file / CLI wiring
// -----------------------------------------------------------------------------

func applyPreset(cfg *Config, name string) error {
	named, err := integration.GetPresetByName(name)
	if err != nil {
		return err
	}
	// fields a preset leaves zero fall back to the default profile
	p := integration.DefaultPreset()
	integration.ApplyPreset(&p, named)
	if err := p.Apply(&cfg.Simulation, &cfg.Genesis); err != nil {
		return err
	}
	cfg.Preset = p.Name
	cfg.Metrics.Enable = p.EnableMetrics
	cfg.Output.VerboseEvents = p.VerboseEvents
	cfg.Output.StoreCacheMB = p.StoreCacheMB
	return nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyCLIOverrides(f flagReader, cfg *Config) error {
	if f.isSet("log.format") {
		cfg.Logging.Format = f.string("log.format")
	}
	if f.isSet("log.verbosity") {
		cfg.Logging.Verbosity = f.int("log.verbosity")
	}
	if f.isSet("log.color") {
		cfg.Logging.Color = f.bool("log.color")
	}
	if f.isSet("sentry.dsn") {
		cfg.Logging.SentryDSN = f.string("sentry.dsn")
	}

	if f.isSet("metrics") {
		cfg.Metrics.Enable = f.bool("metrics")
	}
	if f.isSet("metrics.addr") {
		cfg.Metrics.Addr = f.string("metrics.addr")
	}

	sim := &cfg.Simulation
	if f.isSet("nodes") {
		sim.Nodes = f.int("nodes")
	}
	if f.isSet("endheight") {
		sim.EndHeight = idx.Block(f.uint64("endheight"))
	}
	if f.isSet("maxtime") {
		sim.MaxTime = inter.FromDuration(f.duration("maxtime"))
	}
	if f.isSet("seed") {
		sim.Seed = f.int64("seed")
	}
	if f.isSet("blocksize") {
		sim.BlockSize = f.uint64("blocksize")
	}
	if f.isSet("progress") {
		sim.Progress = f.duration("progress")
	}

	rules := &sim.Rules
	if f.isSet("rules") {
		r, err := stakesim.RulesByName(f.string("rules"))
		if err != nil {
			return err
		}
		*rules = r
	}
	if f.isSet("algorithm") {
		algo, err := stakesim.ParseAlgorithm(f.string("algorithm"))
		if err != nil {
			return err
		}
		rules.Algorithm = algo
	}
	if f.isSet("blocks.interval") {
		rules.Blocks.TargetInterval = inter.FromDuration(f.duration("blocks.interval"))
	}
	if f.isSet("blocks.trial") {
		rules.Blocks.MintTrial = inter.FromDuration(f.duration("blocks.trial"))
	}
	if f.isSet("blocks.daa") {
		rules.Blocks.DAABlocks = f.uint64("blocks.daa")
	}
	if f.isSet("cdw.lowcap") {
		rules.CoinDayWeight.LowCap = f.uint64("cdw.lowcap")
	}
	if f.isSet("cdw.highcap") {
		rules.CoinDayWeight.HighCap = f.uint64("cdw.highcap")
	}
	if f.isSet("economy.reward") {
		rules.Economy.StakingReward = f.float64("economy.reward")
	}

	gen := &cfg.Genesis
	if f.isSet("genesis.source") {
		gen.Source = genesis.Source(f.string("genesis.source"))
	}
	if f.isSet("genesis.amount") {
		gen.Amount = f.int64("genesis.amount")
	}
	if f.isSet("genesis.age") {
		gen.Age = f.uint64("genesis.age")
	}
	if f.isSet("genesis.amountfile") {
		gen.AmountFile = resolvePath(f.string("genesis.amountfile"))
	}
	if f.isSet("genesis.agefile") {
		gen.AgeFile = resolvePath(f.string("genesis.agefile"))
	}
	if f.isSet("genesis.seed") {
		gen.Seed = f.int64("genesis.seed")
	}
	if f.isSet("genesis.amountmean") {
		gen.AmountMean = f.float64("genesis.amountmean")
	}
	if f.isSet("genesis.amountsd") {
		gen.AmountSD = f.float64("genesis.amountsd")
	}
	if f.isSet("genesis.agemean") {
		gen.AgeMean = f.float64("genesis.agemean")
	}
	if f.isSet("genesis.agesd") {
		gen.AgeSD = f.float64("genesis.agesd")
	}

	out := &cfg.Output
	if f.isSet("events") {
		out.EventsFile = outputPath(f.string("events"))
	}
	if f.isSet("events.verbose") {
		out.VerboseEvents = f.bool("events.verbose")
	}
	if f.isSet("store") {
		out.StorePath = resolvePath(f.string("store"))
	}
	if f.isSet("store.cache") {
		out.StoreCacheMB = f.int("store.cache")
	}
	if f.isSet("summary") {
		out.SummaryFile = outputPath(f.string("summary"))
	}

	if f.isSet("seeds") {
		seeds, err := parseSeeds(f.string("seeds"))
		if err != nil {
			return err
		}
		cfg.Sweep.Seeds = seeds
	}
	if f.isSet("workers") {
		cfg.Sweep.Workers = f.int("workers")
	}
	return nil
}

// flagReader looks a flag up on the current command first and on the
// enclosing app second, so commands see the global flags.
type flagReader struct {
	ctx *cli.Context
}

func (f flagReader) local(name string) bool {
	return f.ctx.IsSet(name)
}

func (f flagReader) isSet(name string) bool {
	return f.ctx.IsSet(name) || f.ctx.GlobalIsSet(name)
}

func (f flagReader) string(name string) string {
	if f.local(name) {
		return f.ctx.String(name)
	}
	return f.ctx.GlobalString(name)
}

func (f flagReader) int(name string) int {
	if f.local(name) {
		return f.ctx.Int(name)
	}
	return f.ctx.GlobalInt(name)
}

func (f flagReader) int64(name string) int64 {
	if f.local(name) {
		return f.ctx.Int64(name)
	}
	return f.ctx.GlobalInt64(name)
}

func (f flagReader) uint64(name string) uint64 {
	if f.local(name) {
		return f.ctx.Uint64(name)
	}
	return f.ctx.GlobalUint64(name)
}

func (f flagReader) float64(name string) float64 {
	if f.local(name) {
		return f.ctx.Float64(name)
	}
	return f.ctx.GlobalFloat64(name)
}

func (f flagReader) bool(name string) bool {
	if f.local(name) {
		return f.ctx.Bool(name)
	}
	return f.ctx.GlobalBool(name)
}

func (f flagReader) duration(name string) time.Duration {
	if f.local(name) {
		return f.ctx.Duration(name)
	}
	return f.ctx.GlobalDuration(name)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// parseSeeds accepts "1,2,9" or "3-7".
func parseSeeds(raw string) ([]int64, error) {
	if from, to, ok := strings.Cut(raw, "-"); ok && !strings.Contains(raw, ",") && from != "" {
		lo, err := strconv.ParseInt(strings.TrimSpace(from), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed range %q: %w", raw, err)
		}
		hi, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed range %q: %w", raw, err)
		}
		if hi < lo {
			return nil, fmt.Errorf("invalid seed range %q: end before start", raw)
		}
		seeds := make([]int64, 0, hi-lo+1)
		for s := lo; s <= hi; s++ {
			seeds = append(seeds, s)
		}
		return seeds, nil
	}
	var seeds []int64
	for _, part := range splitCSV(raw) {
		s, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", part, err)
		}
		seeds = append(seeds, s)
	}
	return seeds, nil
}

// outputPath keeps "-" as stdout and resolves everything else.
func outputPath(p string) string {
	if p == "" || p == "-" {
		return p
	}
	return resolvePath(p)
}

func resolvePath(p string) string {
	if strings.HasPrefix(p, "~") {
		return filepath.Join(GuessHomeDir(), strings.TrimPrefix(p, "~"))
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GuessWorkDir(), p)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func GuessWorkDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func GuessHomeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return "."
}
