package simulator

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-stakesim/inter"
)

// Report describes one block event. Block is shared with the tree and must
// be treated as read-only.
type Report struct {
	// At is the simulated time of the event, which for adoption is the
	// arrival time rather than the block time.
	At inter.Timestamp

	Block           *inter.Block
	Height          idx.Block
	Creator         idx.ValidatorID
	Difficulty      *big.Int
	TotalDifficulty *big.Int

	// Interval is the block time minus its parent's; zero for genesis.
	Interval inter.Timestamp
}

func (s *Simulation) report(b *inter.Block) Report {
	r := Report{
		At:              s.sched.Now(),
		Block:           b,
		Height:          b.Height,
		Creator:         b.Creator,
		Difficulty:      b.Difficulty,
		TotalDifficulty: b.TotalDifficulty,
	}
	if parent := s.tree.Parent(b); parent != nil {
		r.Interval = b.Time - parent.Time
	}
	return r
}

// Recorder receives every block event of a run. Calls come from the run's
// single goroutine; implementations shared between concurrent runs must
// synchronise themselves.
type Recorder interface {
	// BlockProduced is called once per block, genesis included.
	BlockProduced(r Report)
	// BlockAdopted is called when node makes the block its head.
	BlockAdopted(node idx.ValidatorID, r Report)
	// BlockRejected is called when node drops a received block.
	BlockRejected(node idx.ValidatorID, r Report)
	// SimulationEnd is called once, after the last event.
	SimulationEnd(res *Result)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) BlockProduced(Report)                  {}
func (NopRecorder) BlockAdopted(idx.ValidatorID, Report)  {}
func (NopRecorder) BlockRejected(idx.ValidatorID, Report) {}
func (NopRecorder) SimulationEnd(*Result)                 {}
