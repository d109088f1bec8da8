package launcher

import (
	"github.com/rony4d/go-stakesim/integration"
	"github.com/rony4d/go-stakesim/simulator"
	"github.com/rony4d/go-stakesim/stakesim/genesis"
)

// Defaults bundles the baseline values the launcher uses before the preset,
// the config file and the flags override them.
type Defaults struct {
	Logging LoggingDefaults
	Metrics MetricsDefaults
	Output  OutputDefaults
	Sweep   SweepDefaults
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs (helpful on terminals, best disabled when piping to files).
}

// MetricsDefaults captures the prometheus endpoint settings.
type MetricsDefaults struct {
	Enable bool   //	Toggle for the metrics server; when true the run exposes /metrics on Addr while it executes.
	Addr   string //	host:port the metrics server binds to (e.g., 0.0.0.0:6060 for all interfaces or 127.0.0.1:6060 for local-only).
}

// OutputDefaults says where results go when no flag names a destination.
type OutputDefaults struct {
	EventsFile   string //	JSON event stream destination; empty disables the stream, "-" is stdout.
	StorePath    string //	LevelDB directory of block records; empty disables the store.
	StoreCacheMB int    //	Block cache of the record store. Records are written once and rarely read back, so a small cache is enough.
	SummaryFile  string //	YAML summary destination; "-" prints the summary after the run.
}

// SweepDefaults tunes the sweep command.
type SweepDefaults struct {
	Seeds   []int64 //	Seeds run by a sweep when none are given.
	Workers int     //	Runs executed concurrently. Each run is single-threaded, so one worker per core is the useful maximum.
}

// DefaultConfig returns a fully populated Defaults instance.
func DefaultConfig() Defaults {
	return Defaults{
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     false,
		},
		Metrics: MetricsDefaults{
			Enable: false,
			Addr:   "127.0.0.1:6060",
		},
		Output: OutputDefaults{
			StoreCacheMB: 16,
			SummaryFile:  "-",
		},
		Sweep: SweepDefaults{
			Seeds:   []int64{1, 2, 3, 4},
			Workers: 4,
		},
	}
}

// defaultConfig builds the launcher config from Defaults and the default
// preset.
func defaultConfig() Config {
	d := DefaultConfig()
	cfg := Config{
		Logging: LoggingConfig{
			Verbosity: d.Logging.Verbosity,
			Format:    d.Logging.Format,
			Color:     d.Logging.Color,
		},
		Metrics: MetricsConfig{
			Enable: d.Metrics.Enable,
			Addr:   d.Metrics.Addr,
		},
		Simulation: simulator.DefaultConfig(),
		Genesis:    genesis.DefaultConfig(),
		Output: OutputConfig{
			EventsFile:   d.Output.EventsFile,
			StorePath:    d.Output.StorePath,
			StoreCacheMB: d.Output.StoreCacheMB,
			SummaryFile:  d.Output.SummaryFile,
		},
		Sweep: SweepConfig{
			Seeds:   append([]int64(nil), d.Sweep.Seeds...),
			Workers: d.Sweep.Workers,
		},
	}
	p := integration.DefaultPreset()
	// the default preset only names valid rules
	_ = p.Apply(&cfg.Simulation, &cfg.Genesis)
	cfg.Preset = p.Name
	return cfg
}
