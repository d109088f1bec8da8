package consensus

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-stakesim/chain"
	"github.com/rony4d/go-stakesim/inter"
	"github.com/rony4d/go-stakesim/stakesim"
	"github.com/rony4d/go-stakesim/stakesim/genesis"
)

func testRules(kind Kind) stakesim.Rules {
	r := stakesim.FakeRules()
	r.Algorithm = kind
	r.Blocks.TargetInterval = 600000
	r.Blocks.MintTrial = 1000
	r.Blocks.DAABlocks = 5
	r.CoinDayWeight = stakesim.CoinDayWeightRules{LowCap: 0, HighCap: 10}
	r.Economy.StakingReward = 0.5
	return r
}

func allocs(ages ...uint64) []genesis.Allocation {
	out := make([]genesis.Allocation, len(ages))
	for i, age := range ages {
		out[i] = genesis.Allocation{Amount: big.NewInt(int64(100 * (i + 1))), Age: age}
	}
	return out
}

// newNodes builds one algorithm per account over a shared tree.
func newNodes(t *testing.T, kind Kind, accounts int) (*chain.Tree, []Algorithm) {
	t.Helper()
	tree := chain.NewTree(accounts)
	nodes := make([]Algorithm, accounts)
	for i := range nodes {
		a, err := New(kind, idx.ValidatorID(i+1), tree, testRules(kind))
		require.NoError(t, err)
		nodes[i] = a
	}
	return tree, nodes
}

func TestNew(t *testing.T) {
	tree := chain.NewTree(3)

	a, err := New(stakesim.AlgoCoinAge, 1, tree, testRules(stakesim.AlgoCoinAge))
	require.NoError(t, err)
	assert.Equal(t, stakesim.AlgoCoinAge, a.Kind())
	assert.Equal(t, idx.ValidatorID(1), a.Self())

	b, err := New(stakesim.AlgoCoinDayWeight, 3, tree, testRules(stakesim.AlgoCoinDayWeight))
	require.NoError(t, err)
	assert.Equal(t, stakesim.AlgoCoinDayWeight, b.Kind())

	_, err = New(stakesim.AlgoCoinAge, 4, tree, testRules(stakesim.AlgoCoinAge))
	assert.Error(t, err)
	_, err = New("pow", 1, tree, testRules(stakesim.AlgoCoinAge))
	assert.Error(t, err)

	bad := testRules(stakesim.AlgoCoinAge)
	bad.Blocks.MintTrial = 0
	_, err = New(stakesim.AlgoCoinAge, 1, tree, bad)
	assert.ErrorIs(t, err, stakesim.ErrInvalidRules)
}

// Three accounts of 100/200/300 at age 0, caps 0/10, ten minute target:
// account 2 mints the first block at 600 s.
func TestCoinDayWeight_ThreeAccountExample(t *testing.T) {
	tree, nodes := newNodes(t, stakesim.AlgoCoinDayWeight, 3)

	g, err := nodes[0].Genesis(allocs(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Difficulty.Sign())
	assert.Equal(t, 0, g.TotalDifficulty.Sign())

	// nobody holds coin-day-weight at age 0
	for _, n := range nodes {
		_, ok := n.NextMint(g, rand.New(rand.NewSource(1)))
		assert.False(t, ok)
	}
	_, err = nodes[1].Mint(MintPlan{Parent: g, Difficulty: new(big.Int)}, 600000)
	assert.True(t, errors.Is(err, ErrNoStake))

	econ := nodes[1].(chain.Economy)
	b, err := tree.Extend(g, 2, 600000, new(big.Int), econ)
	require.NoError(t, err)

	// reward at the new age 1: floor(200*1*0.5)
	assert.Equal(t, int64(100), b.Reward.Int64())
	acc2, _ := b.Stake(2)
	assert.Equal(t, int64(300), acc2.Amount.Int64())
	assert.Equal(t, uint64(0), acc2.Age)
	for _, id := range []idx.ValidatorID{1, 3} {
		st, _ := b.Stake(id)
		before, _ := g.Stake(id)
		assert.Equal(t, uint64(1), st.Age)
		assert.Equal(t, 0, st.Amount.Cmp(before.Amount))
	}

	// (100*1 + 300*1) * 600000 / 1000
	assert.Equal(t, int64(240000), b.NextDifficulty.Int64())
	assert.Positive(t, b.NextDifficulty.Sign())

	// now accounts 1 and 3 can mint on b, account 2 cannot
	rng := rand.New(rand.NewSource(7))
	_, ok := nodes[0].NextMint(b, rng)
	assert.True(t, ok)
	_, ok = nodes[1].NextMint(b, rng)
	assert.False(t, ok)
	_, ok = nodes[2].NextMint(b, rng)
	assert.True(t, ok)
}

// Lookback of five blocks evaluated at height three, where the window still
// reaches below genesis.
func TestCoinDayWeight_ShortLookback(t *testing.T) {
	tree, nodes := newNodes(t, stakesim.AlgoCoinDayWeight, 3)
	g, err := nodes[0].Genesis(allocs(20, 20, 20))
	require.NoError(t, err)
	econ := nodes[0].(chain.Economy)

	b1, err := tree.Extend(g, 1, 500000, big.NewInt(1000), econ)
	require.NoError(t, err)
	b2, err := tree.Extend(b1, 2, 1100000, big.NewInt(1000), econ)
	require.NoError(t, err)
	b3, err := tree.Extend(b2, 3, 1700000, big.NewInt(290000), econ)
	require.NoError(t, err)

	// actual = 1700000 - 0 + (5-3)*600000 = 2900000
	// next   = 290000 * 5 * 600000 / 2900000 = 300000
	assert.Equal(t, int64(300000), b3.NextDifficulty.Int64())

	// height 1: actual = 500000 + 4*600000 = 2900000
	assert.Equal(t, int64(1000*5*600000/2900000), b1.NextDifficulty.Int64())
}

func TestCoinDayWeight_FullWindow(t *testing.T) {
	tree, nodes := newNodes(t, stakesim.AlgoCoinDayWeight, 3)
	g, err := nodes[0].Genesis(allocs(20, 20, 20))
	require.NoError(t, err)
	econ := nodes[0].(chain.Economy)

	// seven blocks, 300 s apart: twice as fast as the target
	head := g
	for i := 1; i <= 7; i++ {
		head, err = tree.Extend(head, idx.ValidatorID(i%3+1), inter.Timestamp(i*300000), big.NewInt(1000), econ)
		require.NoError(t, err)
	}
	// window 5 at height 7: actual = time(7) - time(2) = 1500000
	assert.Equal(t, int64(1000*5*600000/1500000), head.NextDifficulty.Int64())
	assert.Equal(t, int64(2000), head.NextDifficulty.Int64())
}

// A window far slower than the target rounds the adjustment down to zero;
// the target is reseeded from the total coin-day-weight instead.
func TestCoinDayWeight_SlowWindowReseeds(t *testing.T) {
	tree, nodes := newNodes(t, stakesim.AlgoCoinDayWeight, 3)
	g, err := nodes[0].Genesis(allocs(20, 20, 20))
	require.NoError(t, err)
	econ := nodes[0].(chain.Economy)

	// 1 * 5 * 600000 / (10000000 + 4*600000) rounds to 0
	b1, err := tree.Extend(g, 1, 10000000, big.NewInt(1), econ)
	require.NoError(t, err)

	// ages 0, 21, 21 capped at 10: (0 + 200*10 + 300*10) * 600000 / 1000
	assert.Equal(t, int64(3000000), b1.NextDifficulty.Int64())

	// a child on the reseeded target always outweighs its parent
	plan, ok := nodes[1].NextMint(b1, rand.New(rand.NewSource(5)))
	require.True(t, ok)
	b2, err := nodes[1].Mint(plan, b1.Time+plan.Delay)
	require.NoError(t, err)
	assert.True(t, nodes[0].IsValid(b2, b1))
}

func TestNextDifficulty_NeverZero(t *testing.T) {
	for _, kind := range stakesim.Algorithms() {
		t.Run(string(kind), func(t *testing.T) {
			_, nodes := newNodes(t, kind, 3)
			g, err := nodes[0].Genesis(allocs(0, 0, 0))
			require.NoError(t, err)
			assert.Equal(t, int64(1), g.NextDifficulty.Int64())
		})
	}
}

func TestCoinDayWeight_GenesisDifficulty(t *testing.T) {
	_, nodes := newNodes(t, stakesim.AlgoCoinDayWeight, 3)
	g, err := nodes[2].Genesis(allocs(4, 12, 0))
	require.NoError(t, err)

	// cdw = 100*4 + 200*10 + 0; scaled by 600000/1000
	want := int64((100*4 + 200*10) * 600)
	assert.Equal(t, want, g.Difficulty.Int64())
	assert.Equal(t, want, g.TotalDifficulty.Int64())
	// the lookback at height 0 spans W target intervals exactly
	assert.Equal(t, want, g.NextDifficulty.Int64())
	assert.Equal(t, idx.ValidatorID(3), g.Creator)

	_, err = nodes[0].Genesis(allocs(1, 1, 1))
	assert.ErrorIs(t, err, chain.ErrGenesisExists)
}

func TestCoinAge_Difficulty(t *testing.T) {
	tree, nodes := newNodes(t, stakesim.AlgoCoinAge, 3)
	g, err := nodes[0].Genesis(allocs(1, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, 0, g.Difficulty.Sign())
	assert.Equal(t, 0, g.TotalDifficulty.Sign())
	// coin-age = 100 + 400 + 900
	assert.Equal(t, int64(1400*600), g.NextDifficulty.Int64())

	plan, ok := nodes[1].NextMint(g, rand.New(rand.NewSource(3)))
	require.True(t, ok)
	assert.Same(t, g, plan.Parent)
	assert.Equal(t, 0, plan.Difficulty.Cmp(g.NextDifficulty))

	b, err := nodes[1].Mint(plan, plan.Delay)
	require.NoError(t, err)
	assert.Equal(t, idx.ValidatorID(2), b.Creator)
	assert.Equal(t, plan.Delay, b.Time)
	// account 2 earned floor(200*3*0.5) at age 3
	assert.Equal(t, int64(300), b.Reward.Int64())
	// ages after: 2, 0, 4
	want := int64(100*2+0+300*4) * 600
	assert.Equal(t, want, b.NextDifficulty.Int64())
	assert.Equal(t, 2, tree.Len())
	assert.True(t, nodes[0].IsValid(b, g))
}

func TestIsValid_ForkChoice(t *testing.T) {
	for _, kind := range stakesim.Algorithms() {
		t.Run(string(kind), func(t *testing.T) {
			tree, nodes := newNodes(t, kind, 3)
			g, err := nodes[0].Genesis(allocs(5, 5, 5))
			require.NoError(t, err)
			econ := nodes[0].(chain.Economy)
			target := g.NextDifficulty

			light, err := tree.Extend(g, 1, 1000, target, econ)
			require.NoError(t, err)
			heavy, err := tree.Extend(g, 2, 2000, new(big.Int).Add(target, big.NewInt(1)), econ)
			require.NoError(t, err)
			twin, err := tree.Extend(g, 3, 500, target, econ)
			require.NoError(t, err)
			weak, err := tree.Extend(g, 3, 500, new(big.Int).Sub(target, big.NewInt(1)), econ)
			require.NoError(t, err)

			v := nodes[1]
			assert.True(t, v.IsValid(g, nil))
			assert.False(t, v.IsValid(nil, g))
			assert.False(t, v.IsValid(g, g))

			// the heavier sibling wins whichever arrives first
			assert.True(t, v.IsValid(heavy, light))
			assert.False(t, v.IsValid(light, heavy))

			// equal weight keeps the current head
			assert.False(t, v.IsValid(twin, light))
			assert.False(t, v.IsValid(light, twin))

			// a block under its parent's target is never adopted
			assert.False(t, v.IsValid(weak, g))
			assert.False(t, v.IsValid(weak, nil))
		})
	}
}

func TestDrawDelay(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	_, ok := drawDelay(new(big.Int), big.NewInt(10), 1000, rng)
	assert.False(t, ok, "no weight")

	d, ok := drawDelay(big.NewInt(5), new(big.Int), 1000, rng)
	assert.True(t, ok, "zero target")
	assert.Equal(t, inter.Timestamp(0), d)

	d, ok = drawDelay(big.NewInt(20), big.NewInt(10), 1000, rng)
	assert.True(t, ok, "certain win")
	assert.Equal(t, inter.Timestamp(0), d)

	tiny := new(big.Int).Lsh(big.NewInt(1), 60)
	_, ok = drawDelay(big.NewInt(1), tiny, 1000, rng)
	assert.False(t, ok, "below float resolution")

	// mean of a geometric number of trials is about 1/p
	const n = 20000
	var sum float64
	for i := 0; i < n; i++ {
		d, ok := drawDelay(big.NewInt(1), big.NewInt(100), 1000, rng)
		require.True(t, ok)
		sum += float64(d)
	}
	mean := sum / n
	assert.InDelta(t, 100*1000, mean, 100*1000*0.05)
}

func TestNextMint_Reproducible(t *testing.T) {
	_, nodes := newNodes(t, stakesim.AlgoCoinDayWeight, 3)
	g, err := nodes[0].Genesis(allocs(3, 3, 3))
	require.NoError(t, err)

	draw := func(seed int64) []inter.Timestamp {
		rng := rand.New(rand.NewSource(seed))
		var out []inter.Timestamp
		for _, n := range nodes {
			p, ok := n.NextMint(g, rng)
			require.True(t, ok)
			out = append(out, p.Delay)
		}
		return out
	}
	assert.Equal(t, draw(99), draw(99))
	assert.NotEqual(t, draw(99), draw(100))
}
