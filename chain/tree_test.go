package chain

import (
	"errors"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/inter/iblockproc"
)

// flatEconomy pays a fixed rate and asks every child for difficulty height+1.
type flatEconomy struct {
	rate *big.Rat
}

func (e flatEconomy) RewardRate() *big.Rat { return e.rate }

func (e flatEconomy) NextDifficulty(_ *Tree, b *inter.Block) *big.Int {
	return new(big.Int).SetUint64(uint64(b.Height) + 1)
}

func testLedger() inter.Ledger {
	return inter.Ledger{
		inter.NewStakeState(big.NewInt(100), 0),
		inter.NewStakeState(big.NewInt(200), 0),
		inter.NewStakeState(big.NewInt(300), 0),
	}
}

func newTestTree(t *testing.T) (*Tree, *inter.Block, Economy) {
	t.Helper()
	econ := flatEconomy{rate: big.NewRat(1, 10)}
	tree := NewTree(3)
	g, err := tree.Genesis(1, testLedger(), big.NewInt(5), econ)
	require.NoError(t, err)
	return tree, g, econ
}

func TestGenesis(t *testing.T) {
	tree, g, econ := newTestTree(t)

	assert.True(t, g.IsGenesis())
	assert.Equal(t, inter.BlockID(0), g.ID)
	assert.Equal(t, idx.Block(0), g.Height)
	assert.Equal(t, int64(5), g.TotalDifficulty.Int64())
	assert.Equal(t, int64(1), g.NextDifficulty.Int64())
	assert.Same(t, g, tree.Root())

	_, err := tree.Genesis(1, testLedger(), big.NewInt(5), econ)
	assert.ErrorIs(t, err, ErrGenesisExists)
}

func TestGenesis_RejectsBadLedger(t *testing.T) {
	econ := flatEconomy{rate: big.NewRat(1, 10)}

	_, err := NewTree(4).Genesis(1, testLedger(), nil, econ)
	var inv *InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, inter.BlockID(0), inv.BlockID)

	bad := testLedger()
	bad[1].Amount = big.NewInt(-1)
	_, err = NewTree(3).Genesis(1, bad, nil, econ)
	assert.True(t, errors.As(err, &inv))

	_, err = NewTree(3).Genesis(9, testLedger(), nil, econ)
	assert.ErrorIs(t, err, iblockproc.ErrUnknownCreator)
}

func TestExtend_BlockLaws(t *testing.T) {
	tree, g, econ := newTestTree(t)

	// two competing branches off genesis, then a longer run on the first
	creators := []idx.ValidatorID{2, 3, 1, 2, 2, 3}
	head := g
	for i, c := range creators {
		parent := head
		b, err := tree.Extend(parent, c, parent.Time+inter.Timestamp(1000*(i+1)), big.NewInt(int64(i+1)), econ)
		require.NoError(t, err)
		head = b
	}
	sibling, err := tree.Extend(g, 3, 500, big.NewInt(7), econ)
	require.NoError(t, err)

	for _, b := range tree.Blocks() {
		parent := tree.Parent(b)
		if parent == nil {
			assert.Equal(t, idx.Block(0), b.Height)
			continue
		}
		// height
		assert.Equal(t, parent.Height+1, b.Height)
		// total difficulty
		want := new(big.Int).Add(parent.TotalDifficulty, b.Difficulty)
		assert.Equal(t, 0, want.Cmp(b.TotalDifficulty), "block %s", b)
		// conservation
		delta := new(big.Int).Sub(b.Ledger.TotalAmount(), parent.Ledger.TotalAmount())
		assert.Equal(t, 0, delta.Cmp(b.Reward), "block %s", b)
		// age reset
		for _, id := range b.Ledger.AccountIDs() {
			now, _ := b.Stake(id)
			before, _ := parent.Stake(id)
			if id == b.Creator {
				assert.Equal(t, uint64(0), now.Age)
			} else {
				assert.Equal(t, before.Age+1, now.Age)
				assert.Equal(t, 0, before.Amount.Cmp(now.Amount))
			}
		}
	}

	assert.Equal(t, len(creators)+2, tree.Len())
	assert.True(t, tree.IsAncestor(g, head))
	assert.True(t, tree.IsAncestor(head, head))
	assert.False(t, tree.IsAncestor(sibling, head))
	assert.Equal(t, g, tree.Ancestor(sibling, 0))
	assert.Nil(t, tree.Ancestor(g, 1))

	chain := tree.Chain(head)
	require.Len(t, chain, len(creators)+1)
	for h, b := range chain {
		assert.Equal(t, idx.Block(h), b.Height)
	}
}

func TestExtend_SiblingsDoNotShareState(t *testing.T) {
	tree, g, econ := newTestTree(t)

	a, err := tree.Extend(g, 1, 10, big.NewInt(1), econ)
	require.NoError(t, err)
	b, err := tree.Extend(g, 2, 10, big.NewInt(1), econ)
	require.NoError(t, err)

	for i := range a.Ledger {
		assert.NotSame(t, a.Ledger[i].Amount, b.Ledger[i].Amount)
		assert.NotSame(t, g.Ledger[i].Amount, a.Ledger[i].Amount)
	}
	assert.Equal(t, int64(100), g.Ledger[0].Amount.Int64())
	assert.Equal(t, uint64(0), g.Ledger[0].Age)
}

func TestExtend_Invariants(t *testing.T) {
	econ := flatEconomy{rate: big.NewRat(1, 10)}

	_, err := NewTree(3).Extend(&inter.Block{}, 1, 0, nil, econ)
	assert.ErrorIs(t, err, ErrNoGenesis)

	tree, g, _ := newTestTree(t)
	var inv *InvariantError

	_, err = tree.Extend(g, 4, 10, big.NewInt(1), econ)
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, idx.Block(1), inv.Height)
	assert.Equal(t, inter.BlockID(1), inv.BlockID)
	assert.ErrorIs(t, err, iblockproc.ErrUnknownCreator)

	child, err := tree.Extend(g, 1, 100, big.NewInt(1), econ)
	require.NoError(t, err)
	_, err = tree.Extend(child, 2, 50, big.NewInt(1), econ)
	assert.True(t, errors.As(err, &inv))

	foreign := &inter.Block{ID: 0, Ledger: testLedger(), TotalDifficulty: new(big.Int)}
	_, err = tree.Extend(foreign, 1, 100, big.NewInt(1), econ)
	assert.True(t, errors.As(err, &inv))
	assert.Contains(t, err.Error(), "invariant violated at block #2")
}
