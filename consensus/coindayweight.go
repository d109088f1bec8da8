package consensus

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-stakesim/chain"
	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/stakesim"
	"github.com/rony4d/go-stakesim/stakesim/genesis"
)

// coinDayWeight weighs stake by coin-day-weight, the coin-age with age
// clamped to [LowCap, HighCap], and retargets difficulty from the time the
// last DAABlocks blocks took.
type coinDayWeight struct {
	base
}

var _ chain.Economy = (*coinDayWeight)(nil)

func (a *coinDayWeight) Kind() Kind {
	return stakesim.AlgoCoinDayWeight
}

func (a *coinDayWeight) totalWeight(l inter.Ledger) *big.Int {
	caps := a.rules.CoinDayWeight
	return l.TotalCoinDayWeight(caps.LowCap, caps.HighCap)
}

// NextDifficulty applies the lookback adjustment at height h with window W:
//
//	actual = time(h) - time(max(h-W, 0)) + max(W-h, 0) * TargetInterval
//	next   = difficulty * W * TargetInterval / actual
//
// The correction term stands in for the blocks missing below genesis. A
// block claiming zero difficulty has nothing to scale, and a window slow
// enough rounds the result down to zero; in both cases the target is
// reseeded from the ledger's total coin-day-weight, as genesis is. The
// published target is never below one.
func (a *coinDayWeight) NextDifficulty(t *chain.Tree, b *inter.Block) *big.Int {
	if b.Difficulty.Sign() == 0 {
		return a.reseed(b.Ledger)
	}
	window := a.rules.Blocks.DAABlocks
	interval := uint64(a.rules.Blocks.TargetInterval)
	height := uint64(b.Height)

	var from idx.Block
	if height > window {
		from = idx.Block(height - window)
	}
	start := t.Ancestor(b, from)

	actual := uint64(b.Time - start.Time)
	if window > height {
		actual += (window - height) * interval
	}
	if actual == 0 {
		actual = 1
	}

	next := new(big.Int).Mul(b.Difficulty, new(big.Int).SetUint64(window))
	next.Mul(next, new(big.Int).SetUint64(interval))
	next.Quo(next, new(big.Int).SetUint64(actual))
	if next.Sign() == 0 {
		return a.reseed(b.Ledger)
	}
	return next
}

func (a *coinDayWeight) reseed(l inter.Ledger) *big.Int {
	return atLeastOne(a.scaled(a.totalWeight(l)))
}

// Genesis claims the total initial coin-day-weight as its difficulty.
func (a *coinDayWeight) Genesis(allocs []genesis.Allocation) (*inter.Block, error) {
	ledger := genesis.Ledger(allocs)
	return a.tree.Genesis(a.self, ledger, a.scaled(a.totalWeight(ledger)), a)
}

func (a *coinDayWeight) weight(b *inter.Block) *big.Int {
	st, ok := b.Stake(a.self)
	if !ok {
		return new(big.Int)
	}
	caps := a.rules.CoinDayWeight
	return st.CoinDayWeight(caps.LowCap, caps.HighCap)
}

func (a *coinDayWeight) NextMint(head *inter.Block, rng *rand.Rand) (MintPlan, bool) {
	if head == nil {
		return MintPlan{}, false
	}
	return a.plan(head, a.weight(head), head.NextDifficulty, rng)
}

func (a *coinDayWeight) Mint(plan MintPlan, at inter.Timestamp) (*inter.Block, error) {
	if plan.Parent == nil {
		return nil, fmt.Errorf("mint by %d: no parent", a.self)
	}
	if a.weight(plan.Parent).Sign() <= 0 {
		return nil, ErrNoStake
	}
	return a.tree.Extend(plan.Parent, a.self, at, plan.Difficulty, a)
}
