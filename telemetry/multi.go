package telemetry

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-stakesim/simulator"
)

// Multi fans every event out to a list of recorders, in order.
type Multi []simulator.Recorder

// NewMulti drops nil recorders.
func NewMulti(recs ...simulator.Recorder) Multi {
	out := make(Multi, 0, len(recs))
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m Multi) BlockProduced(r simulator.Report) {
	for _, rec := range m {
		rec.BlockProduced(r)
	}
}

func (m Multi) BlockAdopted(node idx.ValidatorID, r simulator.Report) {
	for _, rec := range m {
		rec.BlockAdopted(node, r)
	}
}

func (m Multi) BlockRejected(node idx.ValidatorID, r simulator.Report) {
	for _, rec := range m {
		rec.BlockRejected(node, r)
	}
}

func (m Multi) SimulationEnd(res *simulator.Result) {
	for _, rec := range m {
		rec.SimulationEnd(res)
	}
}
