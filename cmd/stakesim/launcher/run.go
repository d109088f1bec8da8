package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/yaml.v3"

	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/simulator"
	"github.com/rony4d/go-stakesim/telemetry"
)

// sinks are the output collaborators shared by every run of one invocation.
type sinks struct {
	events  *telemetry.EventLog
	metrics *telemetry.Metrics
	store   *telemetry.Store

	closers []io.Closer
	stop    context.CancelFunc
	served  chan struct{}
}

func openSinks(ctx context.Context, cfg Config, stdout io.Writer) (*sinks, error) {
	s := &sinks{}

	if cfg.Output.EventsFile != "" || cfg.Logging.SentryDSN != "" {
		w := io.Discard
		switch cfg.Output.EventsFile {
		case "":
		case "-":
			w = stdout
		default:
			f, err := os.OpenFile(cfg.Output.EventsFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open event stream: %w", err)
			}
			s.closers = append(s.closers, f)
			w = f
		}
		events, err := telemetry.NewEventLog(w, cfg.Output.VerboseEvents, cfg.Logging.SentryDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("set up event stream: %w", err)
		}
		s.events = events
	}

	if cfg.Output.StorePath != "" {
		store, err := telemetry.OpenStore(cfg.Output.StorePath, cfg.Output.StoreCacheMB)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.store = store
		s.closers = append(s.closers, store)
	}

	if cfg.Metrics.Enable {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		s.metrics = telemetry.NewMetrics(reg)

		ctx, s.stop = context.WithCancel(ctx)
		s.served = make(chan struct{})
		go func() {
			defer close(s.served)
			log.Info("Starting metrics server", "addr", cfg.Metrics.Addr)
			if err := telemetry.Serve(ctx, cfg.Metrics.Addr, reg); err != nil {
				log.Error("Metrics server failed", "addr", cfg.Metrics.Addr, "err", err)
			}
		}()
	}
	return s, nil
}

func (s *sinks) recorder(run string) simulator.Recorder {
	var recs []simulator.Recorder
	if s.events != nil {
		recs = append(recs, s.events.ForRun(run))
	}
	if s.metrics != nil {
		recs = append(recs, s.metrics.ForRun(run))
	}
	if s.store != nil {
		recs = append(recs, s.store.ForRun(run))
	}
	if len(recs) == 0 {
		return nil
	}
	return telemetry.NewMulti(recs...)
}

func (s *sinks) failed(run string, err error) {
	if s.events != nil {
		s.events.RunFailed(run, err)
	}
	if s.metrics != nil {
		s.metrics.RunFailed()
	}
}

// Close stops the metrics server and releases files and the store.
func (s *sinks) Close() error {
	if s.stop != nil {
		s.stop()
		<-s.served
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runOne executes a single run named run with the given config.
func runOne(ctx context.Context, cfg Config, run string, s *sinks) (*simulator.Result, error) {
	logger := log.New("run", run)
	start := time.Now()

	allocs, err := cfg.Genesis.Load(cfg.Simulation.Nodes)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", run, err)
	}
	sim, err := simulator.New(cfg.Simulation, allocs, s.recorder(run))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", run, err)
	}
	logger.Info("Simulation started", "nodes", cfg.Simulation.Nodes, "rules", cfg.Simulation.Rules.Name,
		"algorithm", cfg.Simulation.Rules.Algorithm, "seed", cfg.Simulation.Seed, "endheight", cfg.Simulation.EndHeight)

	res, err := sim.Run(ctx)
	if err != nil {
		s.failed(run, err)
		return nil, fmt.Errorf("run %s: %w", run, err)
	}
	if s.store != nil {
		if err := s.store.Err(); err != nil {
			return res, fmt.Errorf("run %s: %w", run, err)
		}
	}

	sum := res.Summary
	logger.Info("Simulation finished", "reason", res.Reason, "height", sum.Height, "blocks", sum.Blocks,
		"orphans", sum.Orphans, "interval", fmt.Sprintf("%.1fs", sum.MeanInterval),
		"simulated", res.EndTime.Duration(), "elapsed", common.PrettyDuration(time.Since(start)))
	return res, nil
}

// summaryDoc is the YAML document written per run.
type summaryDoc struct {
	Run     string                `yaml:"run"`
	Seed    int64                 `yaml:"seed"`
	Reason  simulator.StopReason  `yaml:"reason"`
	EndTime inter.Timestamp       `yaml:"endTime"`
	Events  uint64                `yaml:"events"`
	Summary simulator.Summary     `yaml:"summary"`
	Nodes   []simulator.NodeStats `yaml:"nodes,omitempty"`
}

func newSummaryDoc(run string, res *simulator.Result, withNodes bool) summaryDoc {
	doc := summaryDoc{
		Run:     run,
		Seed:    res.Seed,
		Reason:  res.Reason,
		EndTime: res.EndTime,
		Events:  res.Events,
		Summary: res.Summary,
	}
	if withNodes {
		doc.Nodes = res.Nodes
	}
	return doc
}

func writeYAML(path string, stdout io.Writer, v interface{}) error {
	if path == "" {
		return nil
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
