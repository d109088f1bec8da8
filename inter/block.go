// Package inter defines the ledger-level data structures shared by the
// consensus engine and the simulator around it.
//
// Key concepts:
//   - StakeState: amount and age of one account, with coin-age and
//     coin-day-weight derived from them
//   - Ledger: one StakeState per simulated account, snapshotted per block
//   - Block: an immutable node of the block tree, linked to its parent by id
//
// Usage:
//
//	st := inter.NewStakeState(big.NewInt(100), 3)
//	w := st.CoinDayWeight(0, 10) // 300
//	b := tree.Get(id)
//	parentID := b.Parent
//
// Blocks are only built by chain.Tree, which assigns ids and keeps the
// parent links resolvable.
package inter

import (
	"fmt"
	"math"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

// BlockID is the arena handle of a block. Ids are assigned in construction
// order, so they double as a deterministic tie-break key.
type BlockID uint64

// NoParent is the parent handle of the genesis block.
const NoParent BlockID = math.MaxUint64

// Block is one candidate block of the simulated chain. Once the arena has
// handed it out, no field changes.
type Block struct {
	// ID is unique within a run and increases with construction order.
	ID BlockID

	// Height is 0 for genesis and parent height + 1 otherwise.
	Height idx.Block

	// Parent is NoParent for genesis.
	Parent BlockID

	// Creator is the account that minted the block.
	Creator idx.ValidatorID

	// Time is when the block was minted. It is monotonic along a chain but
	// not across branches.
	Time Timestamp

	// Ledger holds the state of every simulated account after this block.
	Ledger Ledger

	// Difficulty is the stake weight the block claims to satisfy.
	Difficulty *big.Int

	// TotalDifficulty is the sum of Difficulty from genesis up to this block;
	// it is the chain-weight compared by fork choice.
	TotalDifficulty *big.Int

	// NextDifficulty is the target any child of this block must meet.
	NextDifficulty *big.Int

	// Reward is the amount credited to Creator by this block; zero for
	// genesis.
	Reward *big.Int
}

// IsGenesis reports whether b is the root of the tree.
func (b *Block) IsGenesis() bool {
	return b.Parent == NoParent
}

// Stake returns the state of account id as of this block.
func (b *Block) Stake(id idx.ValidatorID) (StakeState, bool) {
	return b.Ledger.Account(id)
}

func (b *Block) String() string {
	return fmt.Sprintf("#%d@%d", b.ID, b.Height)
}
