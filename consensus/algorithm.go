// Package consensus implements the proof-of-stake strategies a simulated
// node runs. Each node owns one Algorithm; every Algorithm of a run builds
// into the same chain.Tree.
//
// An Algorithm answers three questions for the scheduler and the network
// layer:
//   - when would this node mint next on top of a given head (NextMint),
//   - what block does it mint when that moment comes (Mint),
//   - should a received block replace the current head (IsValid).
//
// Two variants exist, selected by Kind: the coin-age baseline and the
// capped coin-day-weight variant with a lookback difficulty adjustment.
package consensus

import (
	"errors"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-stakesim/chain"
	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/stakesim"
	"github.com/rony4d/go-stakesim/stakesim/genesis"
)

// Kind tags a consensus variant.
type Kind = stakesim.Algorithm

// ErrNoStake is returned by Mint when the node holds no stake weight on the
// planned parent.
var ErrNoStake = errors.New("no stake weight to mint with")

// MintPlan is a scheduled self-mint: after Delay, mint on Parent claiming
// Difficulty.
type MintPlan struct {
	Parent     *inter.Block
	Delay      inter.Timestamp
	Difficulty *big.Int
}

// Algorithm is the per-node consensus strategy.
type Algorithm interface {
	// Kind returns the variant tag.
	Kind() Kind
	// Self is the account this node mints for.
	Self() idx.ValidatorID

	// Genesis builds the single genesis block of the run from one
	// allocation per account.
	Genesis(allocs []genesis.Allocation) (*inter.Block, error)

	// NextMint draws when this node would mint on head. ok is false if the
	// node has effectively no chance to mint there.
	NextMint(head *inter.Block, rng *rand.Rand) (plan MintPlan, ok bool)

	// Mint builds the block of a plan whose delay has elapsed.
	Mint(plan MintPlan, at inter.Timestamp) (*inter.Block, error)

	// IsValid reports whether received meets its parent's difficulty target
	// and outweighs current. A nil current accepts any valid block.
	IsValid(received, current *inter.Block) bool
}

// New creates the Algorithm of the given kind for account self.
func New(kind Kind, self idx.ValidatorID, tree *chain.Tree, rules stakesim.Rules) (Algorithm, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if self < 1 || int(self) > tree.Accounts() {
		return nil, fmt.Errorf("account %d out of range 1..%d", self, tree.Accounts())
	}
	b := base{self: self, tree: tree, rules: rules, rate: rules.RewardRate()}
	switch kind {
	case stakesim.AlgoCoinAge:
		return &coinAge{base: b}, nil
	case stakesim.AlgoCoinDayWeight:
		return &coinDayWeight{base: b}, nil
	}
	return nil, fmt.Errorf("unknown consensus algorithm %q", kind)
}

// base holds what both variants read. None of it changes after New.
type base struct {
	self  idx.ValidatorID
	tree  *chain.Tree
	rules stakesim.Rules
	rate  *big.Rat
}

func (b *base) Self() idx.ValidatorID {
	return b.self
}

func (b *base) RewardRate() *big.Rat {
	return b.rate
}

// IsValid is the same for both variants: a block must meet the target its
// parent published, and it replaces the head only if it is strictly heavier.
func (b *base) IsValid(received, current *inter.Block) bool {
	if received == nil {
		return false
	}
	if received.Height > 0 {
		parent := b.tree.Parent(received)
		if parent == nil || received.Difficulty.Cmp(parent.NextDifficulty) < 0 {
			return false
		}
	}
	return current == nil || received.TotalDifficulty.Cmp(current.TotalDifficulty) > 0
}

// scaled returns total * TargetInterval / MintTrial.
func (b *base) scaled(total *big.Int) *big.Int {
	v := new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(b.rules.Blocks.TargetInterval)))
	return v.Quo(v, new(big.Int).SetUint64(uint64(b.rules.Blocks.MintTrial)))
}

// atLeastOne raises a zero or negative target to one. A zero target would
// let any stake holder mint a block that adds no total difficulty.
func atLeastOne(d *big.Int) *big.Int {
	if d.Sign() <= 0 {
		d.SetInt64(1)
	}
	return d
}

// plan draws the mint delay for a node holding weight against target.
func (b *base) plan(head *inter.Block, weight, target *big.Int, rng *rand.Rand) (MintPlan, bool) {
	delay, ok := drawDelay(weight, target, b.rules.Blocks.MintTrial, rng)
	if !ok {
		return MintPlan{}, false
	}
	return MintPlan{Parent: head, Delay: delay, Difficulty: new(big.Int).Set(target)}, true
}
