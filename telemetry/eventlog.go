// Package telemetry holds the output side of a simulation: a JSON event
// stream, prometheus metrics and a leveldb store of block records. Each sink
// hands out a simulator.Recorder per run and is safe to share between runs
// executing concurrently.
package telemetry

import (
	"io"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-stakesim/simulator"
)

// Event kinds written to the event stream.
const (
	KindBlockProduced = "block-produced"
	KindBlockAdopted  = "block-adopted"
	KindBlockRejected = "block-rejected"
	KindSimulationEnd = "simulation-end"
	KindRunFailed     = "run-failed"
)

// EventLog writes one JSON object per block event.
type EventLog struct {
	logger *logrus.Logger
}

// NewEventLog creates an event stream on w. Adoption and rejection events are
// only written when verbose is set, since there is one per node per block.
// A non-empty sentryDSN forwards failed runs to Sentry.
func NewEventLog(w io.Writer, verbose bool, sentryDSN string) (*EventLog, error) {
	logger := logrus.New()
	logger.Out = w
	logger.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "kind",
		},
	}
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	if sentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(sentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, err
		}
		logger.Hooks.Add(hook)
	}
	return &EventLog{logger: logger}, nil
}

// ForRun returns the recorder of one run.
func (l *EventLog) ForRun(run string) simulator.Recorder {
	return &runEvents{entry: l.logger.WithField("run", run)}
}

// RunFailed reports a run that aborted.
func (l *EventLog) RunFailed(run string, err error) {
	l.logger.WithFields(logrus.Fields{"run": run, "error": err.Error()}).Error(KindRunFailed)
}

type runEvents struct {
	entry *logrus.Entry
}

func blockFields(r simulator.Report) logrus.Fields {
	return logrus.Fields{
		"timestamp":        uint64(r.At),
		"block-id":         uint64(r.Block.ID),
		"height":           uint64(r.Height),
		"creator":          uint32(r.Creator),
		"block-time":       uint64(r.Block.Time),
		"difficulty":       r.Difficulty.String(),
		"total-difficulty": r.TotalDifficulty.String(),
	}
}

func (e *runEvents) BlockProduced(r simulator.Report) {
	f := blockFields(r)
	f["reward"] = r.Block.Reward.String()
	e.entry.WithFields(f).Info(KindBlockProduced)
}

func (e *runEvents) BlockAdopted(node idx.ValidatorID, r simulator.Report) {
	f := blockFields(r)
	f["node-id"] = uint32(node)
	e.entry.WithFields(f).Debug(KindBlockAdopted)
}

func (e *runEvents) BlockRejected(node idx.ValidatorID, r simulator.Report) {
	f := blockFields(r)
	f["node-id"] = uint32(node)
	e.entry.WithFields(f).Debug(KindBlockRejected)
}

func (e *runEvents) SimulationEnd(res *simulator.Result) {
	e.entry.WithFields(logrus.Fields{
		"timestamp":   uint64(res.EndTime),
		"reason":      string(res.Reason),
		"height":      uint64(res.Summary.Height),
		"blocks":      res.Summary.Blocks,
		"orphans":     res.Summary.Orphans,
		"orphan-rate": res.Summary.OrphanRate,
	}).Info(KindSimulationEnd)
}
