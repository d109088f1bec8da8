package simulator

import (
	"math"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"gonum.org/v1/gonum/stat"

	"github.com/rony4d/go-stakesim/chain"
	"github.com/rony4d/go-stakesim/inter"
)

// Result is the outcome of a run.
type Result struct {
	Seed    int64
	Reason  StopReason
	EndTime inter.Timestamp
	Events  uint64

	Tree *chain.Tree
	// Head is node 1's head; its chain is the canonical chain of the run.
	Head *inter.Block
	// Heads holds every node's head, by node index.
	Heads []*inter.Block
	// Orphans are the blocks no head descends from, in id order.
	Orphans []*inter.Block

	Nodes   []NodeStats
	Summary Summary
}

// NodeStats is the per-node outcome of a run.
type NodeStats struct {
	ID     idx.ValidatorID `yaml:"id"`
	Region string          `yaml:"region"`
	Degree int             `yaml:"degree"`

	GenesisAmount *big.Int `yaml:"genesisAmount"`
	FinalAmount   *big.Int `yaml:"finalAmount"`
	// OnChain counts the blocks of the canonical chain the node minted.
	OnChain int `yaml:"onChain"`

	Minted   uint64 `yaml:"minted"`
	Adopted  uint64 `yaml:"adopted"`
	Rejected uint64 `yaml:"rejected"`
	Orphans  int    `yaml:"orphans"`
}

// Summary aggregates a run into a few numbers.
type Summary struct {
	Height  idx.Block `yaml:"height"`
	Blocks  int       `yaml:"blocks"`
	Orphans int       `yaml:"orphans"`
	// OrphanRate is orphans over all non-genesis blocks.
	OrphanRate float64 `yaml:"orphanRate"`

	// MeanInterval and StdDevInterval describe the time between
	// consecutive canonical blocks, in seconds.
	MeanInterval   float64 `yaml:"meanInterval"`
	StdDevInterval float64 `yaml:"stdDevInterval"`

	// StakeCorrelation is the Pearson correlation between each node's share
	// of genesis stake and its share of canonical blocks.
	StakeCorrelation float64 `yaml:"stakeCorrelation"`

	GenesisStake *big.Int `yaml:"genesisStake"`
	FinalStake   *big.Int `yaml:"finalStake"`
}

func (s *Simulation) result(reason StopReason) *Result {
	res := &Result{
		Seed:    s.cfg.Seed,
		Reason:  reason,
		EndTime: s.sched.Now(),
		Events:  s.sched.Executed(),
		Tree:    s.tree,
		Heads:   make([]*inter.Block, len(s.nodes)),
	}
	genesis := s.tree.Root()
	for i, n := range s.nodes {
		res.Heads[i] = n.head
		if res.Heads[i] == nil {
			res.Heads[i] = genesis
		}
	}
	res.Head = res.Heads[0]
	res.Orphans = Orphans(s.tree, res.Heads)

	canonical := s.tree.Chain(res.Head)
	onChain := make(map[idx.ValidatorID]int)
	for _, b := range canonical[1:] {
		onChain[b.Creator]++
	}
	for _, n := range s.nodes {
		before, _ := genesis.Stake(n.id)
		after, _ := res.Head.Stake(n.id)
		res.Nodes = append(res.Nodes, NodeStats{
			ID:            n.id,
			Region:        n.region.String(),
			Degree:        len(n.neighbors),
			GenesisAmount: before.Amount,
			FinalAmount:   after.Amount,
			OnChain:       onChain[n.id],
			Minted:        n.minted,
			Adopted:       n.adopted,
			Rejected:      n.rejected,
			Orphans:       len(n.orphans),
		})
	}
	res.Summary = Summarize(s.tree, res.Head, res.Orphans)
	return res
}

// Orphans returns the blocks of tree that are not on the chain of any head.
func Orphans(tree *chain.Tree, heads []*inter.Block) []*inter.Block {
	live := make(map[inter.BlockID]bool, tree.Len())
	for _, h := range heads {
		for b := h; b != nil && !live[b.ID]; b = tree.Parent(b) {
			live[b.ID] = true
		}
	}
	var out []*inter.Block
	for _, b := range tree.Blocks() {
		if !live[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

// Summarize computes the run statistics of the chain ending at head.
func Summarize(tree *chain.Tree, head *inter.Block, orphans []*inter.Block) Summary {
	sum := Summary{
		Blocks:       tree.Len(),
		Orphans:      len(orphans),
		GenesisStake: new(big.Int),
		FinalStake:   new(big.Int),
	}
	if head == nil {
		return sum
	}
	canonical := tree.Chain(head)
	genesis := canonical[0]
	sum.Height = head.Height
	sum.GenesisStake = genesis.Ledger.TotalAmount()
	sum.FinalStake = head.Ledger.TotalAmount()
	if sum.Blocks > 1 {
		sum.OrphanRate = float64(sum.Orphans) / float64(sum.Blocks-1)
	}

	if len(canonical) > 1 {
		intervals := make([]float64, 0, len(canonical)-1)
		for i := 1; i < len(canonical); i++ {
			intervals = append(intervals, (canonical[i].Time - canonical[i-1].Time).Duration().Seconds())
		}
		sum.MeanInterval, sum.StdDevInterval = stat.MeanStdDev(intervals, nil)
		if math.IsNaN(sum.StdDevInterval) {
			sum.StdDevInterval = 0
		}
	}

	accounts := len(genesis.Ledger)
	stakeShare := make([]float64, accounts)
	blockShare := make([]float64, accounts)
	total, _ := new(big.Float).SetInt(sum.GenesisStake).Float64()
	for i, st := range genesis.Ledger {
		if total > 0 {
			a, _ := new(big.Float).SetInt(st.Amount).Float64()
			stakeShare[i] = a / total
		}
	}
	for _, b := range canonical[1:] {
		blockShare[b.Creator-1] += 1 / float64(len(canonical)-1)
	}
	if accounts > 1 {
		sum.StakeCorrelation = stat.Correlation(stakeShare, blockShare, nil)
		if math.IsNaN(sum.StakeCorrelation) {
			sum.StakeCorrelation = 0
		}
	}
	return sum
}
