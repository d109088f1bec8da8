package ibr

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-stakesim/inter"
)

func testBlock() *inter.Block {
	return &inter.Block{
		ID:      3,
		Height:  2,
		Parent:  1,
		Creator: 2,
		Time:    4500,
		Ledger: inter.Ledger{
			inter.NewStakeState(big.NewInt(100), 4),
			inter.NewStakeState(big.NewInt(250), 0),
		},
		Difficulty:      big.NewInt(7),
		TotalDifficulty: big.NewInt(19),
		NextDifficulty:  big.NewInt(8),
		Reward:          big.NewInt(1),
	}
}

func TestFromBlock(t *testing.T) {
	b := testBlock()
	r := FromBlock(b)

	assert.Equal(t, b.ID, r.ID)
	assert.Equal(t, b.Parent, r.Parent)
	assert.Equal(t, b.Height, r.Height)
	assert.Equal(t, b.Creator, r.Creator)
	assert.Equal(t, b.Time, r.Time)
	assert.Equal(t, b.Ledger.Hash(), r.LedgerRoot)
	assert.Equal(t, int64(350), r.TotalAmount.Int64())

	// the record owns its numbers
	r.Difficulty.SetInt64(99)
	assert.Equal(t, int64(7), b.Difficulty.Int64())
}

func TestBlockRecordHash(t *testing.T) {
	a := FromBlock(testBlock())
	b := FromBlock(testBlock())
	require.Equal(t, a.Hash(), b.Hash())

	tests := map[string]func(r *BlockRecord){
		"time":       func(r *BlockRecord) { r.Time++ },
		"creator":    func(r *BlockRecord) { r.Creator = 1 },
		"difficulty": func(r *BlockRecord) { r.Difficulty = big.NewInt(8) },
		"ledger":     func(r *BlockRecord) { r.LedgerRoot[0] ^= 1 },
		// moving a byte between adjacent numbers must not collide
		"shifted": func(r *BlockRecord) {
			r.Difficulty = big.NewInt(7 << 8)
			r.TotalDifficulty = big.NewInt(0)
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			r := FromBlock(testBlock())
			mutate(&r)
			assert.NotEqual(t, a.Hash(), r.Hash())
		})
	}

	var empty BlockRecord
	assert.NotPanics(t, func() { empty.Hash() })
}
