// Package simulator runs a proof-of-stake network on a discrete-event clock.
//
// A run builds a random topology, gives every node a consensus.Algorithm over
// one shared chain.Tree, delivers genesis to everyone at time zero and then
// executes mint and delivery events in time order until some node's head
// reaches the end height. A run is single-threaded and fully determined by
// its configuration and seed.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"

	"github.com/rony4d/go-stakesim/chain"
	"github.com/rony4d/go-stakesim/consensus"
	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/stakesim"
	"github.com/rony4d/go-stakesim/stakesim/genesis"
)

// ErrNoNodes is returned for a run without nodes.
var ErrNoNodes = errors.New("simulation needs at least one node")

// Config is the shape of one run.
type Config struct {
	// Nodes is the number of simulated nodes, one account each.
	Nodes int `yaml:"nodes"`
	// EndHeight stops the run once any node's head reaches it.
	EndHeight idx.Block `yaml:"endHeight"`
	// MaxTime stops the run at this simulated time; zero means no limit.
	MaxTime inter.Timestamp `yaml:"maxTime"`
	// Seed drives topology, latency and minting draws.
	Seed int64 `yaml:"seed"`
	// BlockSize is the size of a block on the wire, in bytes.
	BlockSize uint64 `yaml:"blockSize"`
	// Rules are the consensus rules every node runs.
	Rules stakesim.Rules `yaml:"rules"`
	// Progress is the minimum wall-clock time between progress logs.
	Progress time.Duration `yaml:"progress"`
}

// DefaultConfig is a small network on the fake rules.
func DefaultConfig() Config {
	return Config{
		Nodes:     100,
		EndHeight: 100,
		Seed:      10,
		BlockSize: DefaultBlockSize,
		Rules:     stakesim.FakeRules(),
		Progress:  8 * time.Second,
	}
}

// Validate checks the run shape and the rules.
func (c Config) Validate() error {
	if c.Nodes < 1 {
		return ErrNoNodes
	}
	if c.EndHeight == 0 {
		return errors.New("end height must be positive")
	}
	if c.BlockSize == 0 {
		return errors.New("block size must be positive")
	}
	return c.Rules.Validate()
}

// StopReason tells why a run ended.
type StopReason string

const (
	StopEndHeight StopReason = "end-height"
	StopMaxTime   StopReason = "max-time"
	StopDrained   StopReason = "no-events"
	StopCancelled StopReason = "cancelled"
)

// Simulation is one configured run. It can be Run once.
type Simulation struct {
	cfg    Config
	allocs []genesis.Allocation
	rec    Recorder
	log    log.Logger

	rng   *rand.Rand
	tree  *chain.Tree
	sched *Scheduler
	topo  Topology
	nodes []*Node

	best  *inter.Block
	fatal error
	ran   bool
}

// New prepares a run over the given genesis allocations, one per node. A
// nil recorder discards events.
func New(cfg Config, allocs []genesis.Allocation, rec Recorder) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(allocs) != cfg.Nodes {
		return nil, fmt.Errorf("%w: have %d allocations for %d nodes", genesis.ErrFeedExhausted, len(allocs), cfg.Nodes)
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	s := &Simulation{
		cfg:    cfg,
		allocs: allocs,
		rec:    rec,
		log:    log.New("module", "simulator", "seed", cfg.Seed),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		tree:   chain.NewTree(cfg.Nodes),
		sched:  NewScheduler(),
	}
	s.topo = BuildTopology(cfg.Nodes, s.rng)
	s.nodes = make([]*Node, cfg.Nodes)
	for i := range s.nodes {
		id := idx.ValidatorID(i + 1)
		algo, err := consensus.New(cfg.Rules.Algorithm, id, s.tree, cfg.Rules)
		if err != nil {
			return nil, err
		}
		s.nodes[i] = newNode(s, id, s.topo.Regions[i], algo)
	}
	for i, n := range s.nodes {
		for _, nb := range s.topo.Neighbors[i] {
			n.neighbors = append(n.neighbors, s.nodes[nb-1])
		}
	}
	return s, nil
}

// Tree is the block tree of the run.
func (s *Simulation) Tree() *chain.Tree {
	return s.tree
}

// Node returns the node with the given id, or nil.
func (s *Simulation) Node(id idx.ValidatorID) *Node {
	if id < 1 || int(id) > len(s.nodes) {
		return nil
	}
	return s.nodes[id-1]
}

// Now is the current simulated time.
func (s *Simulation) Now() inter.Timestamp {
	return s.sched.Now()
}

func (s *Simulation) observeHead(b *inter.Block) {
	if s.best == nil || b.Height > s.best.Height {
		s.best = b
	}
}

func (s *Simulation) abort(err error) {
	if s.fatal == nil {
		s.fatal = err
	}
}

// Run executes the simulation. It returns the result of the events run so
// far together with any error; a cancelled context is reported as
// StopCancelled, not as an error.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	if s.ran {
		return nil, errors.New("simulation already ran")
	}
	s.ran = true

	start := time.Now()
	g, err := s.nodes[0].algo.Genesis(s.allocs)
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	s.log.Info("Built genesis", "algorithm", s.cfg.Rules.Algorithm, "nodes", s.cfg.Nodes,
		"stake", g.Ledger.TotalAmount(), "difficulty", g.Difficulty, "next", g.NextDifficulty)
	s.rec.BlockProduced(s.report(g))
	for _, n := range s.nodes {
		n := n
		s.sched.After(0, func() {
			n.DeliverBlock(g)
		})
	}

	deadline := inter.Timestamp(math.MaxInt64)
	if s.cfg.MaxTime > 0 {
		deadline = s.cfg.MaxTime
	}
	progress := rate.NewLimiter(rate.Every(s.cfg.Progress), 1)
	progress.Allow()

	var reason StopReason
	for {
		if ctx.Err() != nil {
			reason = StopCancelled
			break
		}
		if s.best != nil && s.best.Height >= s.cfg.EndHeight {
			reason = StopEndHeight
			break
		}
		if !s.sched.Step(deadline) {
			reason = StopDrained
			if s.sched.Pending() > 0 {
				reason = StopMaxTime
			}
			break
		}
		if s.fatal != nil {
			break
		}
		if s.cfg.Progress > 0 && progress.Allow() {
			s.log.Info("Simulating", "height", s.best.Height, "blocks", s.tree.Len(),
				"simtime", s.sched.Now().Duration(), "events", s.sched.Executed())
		}
	}
	if s.fatal != nil {
		s.log.Error("Simulation aborted", "at", s.sched.Now(), "err", s.fatal)
		return nil, s.fatal
	}

	res := s.result(reason)
	s.log.Info("Simulation finished", "reason", reason, "height", res.Head.Height,
		"blocks", s.tree.Len(), "orphans", len(res.Orphans), "simtime", res.EndTime.Duration(),
		"events", res.Events, "elapsed", time.Since(start))
	s.rec.SimulationEnd(res)
	return res, nil
}
