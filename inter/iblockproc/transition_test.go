package iblockproc

import (
	"errors"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-stakesim/inter"
)

func threeAccounts() inter.Ledger {
	return inter.Ledger{
		inter.NewStakeState(big.NewInt(100), 0),
		inter.NewStakeState(big.NewInt(200), 0),
		inter.NewStakeState(big.NewInt(300), 0),
	}
}

func TestApply_AgesRewardsAndResets(t *testing.T) {
	parent := threeAccounts()
	rate := big.NewRat(1, 2)

	out, err := Apply(parent, 2, rate)
	require.NoError(t, err)

	// creator 2 is rewarded at its new age 1: floor(200*1/2) = 100
	assert.Equal(t, int64(100), out.Reward.Int64())
	assert.Equal(t, int64(300), out.Ledger[1].Amount.Int64())
	assert.Equal(t, uint64(0), out.Ledger[1].Age)

	assert.Equal(t, uint64(1), out.Ledger[0].Age)
	assert.Equal(t, uint64(1), out.Ledger[2].Age)
	assert.Equal(t, int64(100), out.Ledger[0].Amount.Int64())
	assert.Equal(t, int64(300), out.Ledger[2].Amount.Int64())
}

func TestApply_LeavesParentUntouched(t *testing.T) {
	parent := threeAccounts()
	before := parent.Hash()

	_, err := Apply(parent, 1, big.NewRat(1, 1))
	require.NoError(t, err)

	assert.Equal(t, before, parent.Hash())
	assert.Equal(t, int64(100), parent[0].Amount.Int64())
	assert.Equal(t, uint64(0), parent[0].Age)
}

func TestApply_Conservation(t *testing.T) {
	ledger := threeAccounts()
	rate := big.NewRat(3, 7)
	creators := []idx.ValidatorID{1, 3, 3, 2, 1, 2, 3}

	for _, c := range creators {
		out, err := Apply(ledger, c, rate)
		require.NoError(t, err)

		delta := new(big.Int).Sub(out.Ledger.TotalAmount(), ledger.TotalAmount())
		assert.Equal(t, 0, delta.Cmp(out.Reward), "creator %d", c)

		diffs, err := Compare(ledger, out.Ledger)
		require.NoError(t, err)
		for _, d := range diffs {
			if d.Account == c {
				assert.Equal(t, uint64(0), d.AgeAfter)
				continue
			}
			assert.Equal(t, 0, d.Amount.Sign(), "account %d changed amount", d.Account)
			assert.Equal(t, d.AgeBefore+1, d.AgeAfter)
		}
		ledger = out.Ledger
	}
}

func TestApply_UnknownCreator(t *testing.T) {
	for _, c := range []idx.ValidatorID{0, 4} {
		_, err := Apply(threeAccounts(), c, big.NewRat(1, 1))
		assert.True(t, errors.Is(err, ErrUnknownCreator), "creator %d", c)
	}
}

func TestApply_NilRatePaysNothing(t *testing.T) {
	out, err := Apply(threeAccounts(), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Reward.Sign())
	assert.Equal(t, int64(300), out.Ledger[2].Amount.Int64())
}

func TestCompare_SizeMismatch(t *testing.T) {
	_, err := Compare(threeAccounts(), threeAccounts()[:2])
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	parent := threeAccounts()
	out, err := Apply(parent, 2, big.NewRat(1, 2))
	require.NoError(t, err)
	require.NoError(t, Verify(parent, out.Ledger, 2, out.Reward))

	// a creator back at age 0 with no reward shows no diff of its own
	idle, err := Apply(out.Ledger, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 0, idle.Reward.Sign())
	require.NoError(t, Verify(out.Ledger, idle.Ledger, 2, idle.Reward))

	for name, mutate := range map[string]func(l inter.Ledger){
		"creator not reset":  func(l inter.Ledger) { l[1].Age = 1 },
		"creator overpaid":   func(l inter.Ledger) { l[1].Amount = big.NewInt(301) },
		"other account paid": func(l inter.Ledger) { l[0].Amount = big.NewInt(101) },
		"other not aged":     func(l inter.Ledger) { l[2].Age = 0 },
		"other aged twice":   func(l inter.Ledger) { l[2].Age = 2 },
	} {
		broken := out.Ledger.Copy()
		mutate(broken)
		err := Verify(parent, broken, 2, out.Reward)
		assert.ErrorIs(t, err, ErrBrokenTransition, name)
	}

	assert.ErrorIs(t, Verify(parent, out.Ledger[:2], 2, out.Reward), ErrBrokenTransition)
	assert.ErrorIs(t, Verify(parent, out.Ledger, 2, big.NewInt(7)), ErrBrokenTransition)
}
