package consensus

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/rony4d/go-stakesim/chain"
	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/stakesim"
	"github.com/rony4d/go-stakesim/stakesim/genesis"
)

// coinAge weighs stake by raw coin-age and targets the total coin-age of the
// network directly, with no retargeting feedback.
type coinAge struct {
	base
}

var _ chain.Economy = (*coinAge)(nil)

func (a *coinAge) Kind() Kind {
	return stakesim.AlgoCoinAge
}

// NextDifficulty is the total coin-age after b, scaled to one target
// interval worth of trials, and at least one.
func (a *coinAge) NextDifficulty(_ *chain.Tree, b *inter.Block) *big.Int {
	return atLeastOne(a.scaled(b.Ledger.TotalCoinAge()))
}

func (a *coinAge) Genesis(allocs []genesis.Allocation) (*inter.Block, error) {
	return a.tree.Genesis(a.self, genesis.Ledger(allocs), new(big.Int), a)
}

func (a *coinAge) weight(b *inter.Block) *big.Int {
	st, ok := b.Stake(a.self)
	if !ok {
		return new(big.Int)
	}
	return st.CoinAge()
}

func (a *coinAge) NextMint(head *inter.Block, rng *rand.Rand) (MintPlan, bool) {
	if head == nil {
		return MintPlan{}, false
	}
	return a.plan(head, a.weight(head), head.NextDifficulty, rng)
}

func (a *coinAge) Mint(plan MintPlan, at inter.Timestamp) (*inter.Block, error) {
	if plan.Parent == nil {
		return nil, fmt.Errorf("mint by %d: no parent", a.self)
	}
	if a.weight(plan.Parent).Sign() <= 0 {
		return nil, ErrNoStake
	}
	return a.tree.Extend(plan.Parent, a.self, at, plan.Difficulty, a)
}
