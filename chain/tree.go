// Package chain holds the block tree of one simulation run.
//
// The tree is an arena: blocks live in a slice indexed by inter.BlockID and
// refer to their parent by id. A block never changes after the arena hands
// it out, so nodes of the simulated network share blocks read-only. Nothing
// is ever removed; blocks that no head descends from are orphans, which the
// simulator reports but does not collect.
//
// A Tree belongs to a single run and is not safe for concurrent use.
package chain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/inter/iblockproc"
)

var (
	// ErrGenesisExists is returned by a second Genesis call on the same tree.
	ErrGenesisExists = errors.New("genesis block already built")
	// ErrNoGenesis is returned by Extend before Genesis.
	ErrNoGenesis = errors.New("genesis block not built yet")
)

// Economy is the variant-specific part of block construction.
type Economy interface {
	// RewardRate is the fraction of the creator's coin-age paid as reward.
	RewardRate() *big.Rat
	// NextDifficulty computes the target for the children of b. b is fully
	// populated except NextDifficulty, and is not yet stored in t, so
	// lookups must go through t.Ancestor(b, ...).
	NextDifficulty(t *Tree, b *inter.Block) *big.Int
}

// InvariantError reports a block that can't be built without breaking the
// ledger invariants. A run that hits one must abort.
type InvariantError struct {
	BlockID inter.BlockID
	Height  idx.Block
	Reason  string
	Err     error
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("invariant violated at block #%d (height %d): %s", e.BlockID, e.Height, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Tree is the arena of every block built during a run.
type Tree struct {
	accounts int
	blocks   []*inter.Block
}

// NewTree creates an empty tree for a run with the given number of accounts.
func NewTree(accounts int) *Tree {
	return &Tree{accounts: accounts}
}

// Accounts is the number of accounts every ledger must hold.
func (t *Tree) Accounts() int {
	return t.accounts
}

// Len is the number of blocks built so far.
func (t *Tree) Len() int {
	return len(t.blocks)
}

// Get returns the block with the given id, or nil.
func (t *Tree) Get(id inter.BlockID) *inter.Block {
	if uint64(id) >= uint64(len(t.blocks)) {
		return nil
	}
	return t.blocks[id]
}

// Root returns the genesis block, or nil before it is built.
func (t *Tree) Root() *inter.Block {
	return t.Get(0)
}

// Parent returns the parent of b, or nil for genesis.
func (t *Tree) Parent(b *inter.Block) *inter.Block {
	if b == nil || b.IsGenesis() {
		return nil
	}
	return t.Get(b.Parent)
}

// Ancestor returns the block at the given height on the chain ending at b,
// b itself included. It returns nil if height is above b.
func (t *Tree) Ancestor(b *inter.Block, height idx.Block) *inter.Block {
	if b == nil || height > b.Height {
		return nil
	}
	for b != nil && b.Height > height {
		b = t.Parent(b)
	}
	return b
}

// IsAncestor reports whether a lies on the chain ending at b. A block is its
// own ancestor.
func (t *Tree) IsAncestor(a, b *inter.Block) bool {
	if a == nil || b == nil {
		return false
	}
	at := t.Ancestor(b, a.Height)
	return at != nil && at.ID == a.ID
}

// Chain returns the blocks from genesis to head, in height order.
func (t *Tree) Chain(head *inter.Block) []*inter.Block {
	if head == nil {
		return nil
	}
	out := make([]*inter.Block, head.Height+1)
	for b := head; b != nil; b = t.Parent(b) {
		out[b.Height] = b
	}
	return out
}

// Blocks returns every block in construction order.
func (t *Tree) Blocks() []*inter.Block {
	out := make([]*inter.Block, len(t.blocks))
	copy(out, t.blocks)
	return out
}

// Genesis builds the root block from the initial ledger. The tree takes
// ownership of ledger.
func (t *Tree) Genesis(creator idx.ValidatorID, ledger inter.Ledger, difficulty *big.Int, econ Economy) (*inter.Block, error) {
	id := inter.BlockID(len(t.blocks))
	if len(t.blocks) != 0 {
		return nil, ErrGenesisExists
	}
	if len(ledger) != t.accounts {
		return nil, &InvariantError{BlockID: id, Reason: fmt.Sprintf("genesis ledger has %d accounts, want %d", len(ledger), t.accounts)}
	}
	if !ledger.Has(creator) {
		return nil, &InvariantError{BlockID: id, Reason: fmt.Sprintf("creator %d", creator), Err: iblockproc.ErrUnknownCreator}
	}
	for i, st := range ledger {
		if st.Amount == nil || st.Amount.Sign() < 0 {
			return nil, &InvariantError{BlockID: id, Reason: fmt.Sprintf("account %d has a negative amount", i+1)}
		}
	}
	if difficulty == nil {
		difficulty = new(big.Int)
	}
	b := &inter.Block{
		ID:              id,
		Height:          0,
		Parent:          inter.NoParent,
		Creator:         creator,
		Time:            0,
		Ledger:          ledger,
		Difficulty:      new(big.Int).Set(difficulty),
		TotalDifficulty: new(big.Int).Set(difficulty),
		Reward:          new(big.Int),
	}
	b.NextDifficulty = econ.NextDifficulty(t, b)
	t.blocks = append(t.blocks, b)
	return b, nil
}

// Extend builds the child of parent minted by creator at the given time.
// The child's ledger is derived from the parent's by iblockproc.Apply.
func (t *Tree) Extend(parent *inter.Block, creator idx.ValidatorID, time inter.Timestamp, difficulty *big.Int, econ Economy) (*inter.Block, error) {
	id := inter.BlockID(len(t.blocks))
	if len(t.blocks) == 0 {
		return nil, ErrNoGenesis
	}
	if parent == nil || t.Get(parent.ID) != parent {
		return nil, &InvariantError{BlockID: id, Reason: "parent is not part of this tree"}
	}
	height := parent.Height + 1
	if len(parent.Ledger) != t.accounts {
		return nil, &InvariantError{BlockID: id, Height: height, Reason: fmt.Sprintf("parent %s ledger has %d accounts, want %d", parent, len(parent.Ledger), t.accounts)}
	}
	if time < parent.Time {
		return nil, &InvariantError{BlockID: id, Height: height, Reason: fmt.Sprintf("time %s is before parent time %s", time, parent.Time)}
	}
	out, err := iblockproc.Apply(parent.Ledger, creator, econ.RewardRate())
	if err != nil {
		return nil, &InvariantError{BlockID: id, Height: height, Reason: "state transition", Err: err}
	}
	if err := iblockproc.Verify(parent.Ledger, out.Ledger, creator, out.Reward); err != nil {
		return nil, &InvariantError{BlockID: id, Height: height, Reason: "state transition", Err: err}
	}
	if difficulty == nil {
		difficulty = new(big.Int)
	}
	b := &inter.Block{
		ID:              id,
		Height:          height,
		Parent:          parent.ID,
		Creator:         creator,
		Time:            time,
		Ledger:          out.Ledger,
		Difficulty:      new(big.Int).Set(difficulty),
		TotalDifficulty: new(big.Int).Add(parent.TotalDifficulty, difficulty),
		Reward:          out.Reward,
	}
	b.NextDifficulty = econ.NextDifficulty(t, b)
	t.blocks = append(t.blocks, b)
	return b, nil
}
