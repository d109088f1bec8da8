package stakesim

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-stakesim/inter"
)

// TestPresetsAreValid verifies every named preset passes validation and
// carries its own name.
func TestPresetsAreValid(t *testing.T) {
	for _, name := range []string{"peercoin", "coinage", "fake"} {
		t.Run(name, func(t *testing.T) {
			r, err := RulesByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, r.Name)
			assert.NoError(t, r.Validate())
		})
	}

	_, err := RulesByName("main")
	assert.Error(t, err)
}

// TestPeercoinRules pins the timing parameters of the default preset.
func TestPeercoinRules(t *testing.T) {
	r := PeercoinRules()

	assert.Equal(t, AlgoCoinDayWeight, r.Algorithm)
	assert.Equal(t, inter.Timestamp(600000), r.Blocks.TargetInterval)
	assert.Equal(t, inter.Timestamp(1000), r.Blocks.MintTrial)
	assert.Equal(t, uint64(144), r.Blocks.DAABlocks)
	assert.Equal(t, uint64(4320), r.CoinDayWeight.LowCap)
	assert.Equal(t, uint64(12960), r.CoinDayWeight.HighCap)
}

func TestCoinAgeRules(t *testing.T) {
	r := CoinAgeRules()
	assert.Equal(t, AlgoCoinAge, r.Algorithm)
	assert.Equal(t, PeercoinRules().Blocks.TargetInterval, r.Blocks.TargetInterval)
	// caps and DAA window are ignored by the coin-age variant
	assert.NoError(t, r.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Rules)
	}{
		{"unknown algorithm", func(r *Rules) { r.Algorithm = "pow" }},
		{"zero interval", func(r *Rules) { r.Blocks.TargetInterval = 0 }},
		{"zero trial", func(r *Rules) { r.Blocks.MintTrial = 0 }},
		{"negative reward", func(r *Rules) { r.Economy.StakingReward = -1 }},
		{"zero DAA window", func(r *Rules) { r.Blocks.DAABlocks = 0 }},
		{"inverted caps", func(r *Rules) { r.CoinDayWeight.LowCap = 100; r.CoinDayWeight.HighCap = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FakeRules()
			tt.mutate(&r)
			err := r.Validate()
			assert.True(t, errors.Is(err, ErrInvalidRules), "got %v", err)
		})
	}
}

func TestRewardRate(t *testing.T) {
	r := FakeRules()
	r.Economy.StakingReward = 0.5
	assert.Equal(t, 0, r.RewardRate().Cmp(big.NewRat(1, 2)))

	r.Economy.StakingReward = 0
	assert.Equal(t, 0, r.RewardRate().Sign())

	r.Economy.StakingReward = -0.1
	assert.Equal(t, 0, r.RewardRate().Sign())
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("coinage")
	require.NoError(t, err)
	assert.Equal(t, AlgoCoinAge, a)

	_, err = ParseAlgorithm("CoinAge")
	assert.Error(t, err)
}

// TestRulesString verifies the JSON form can be read back.
func TestRulesString(t *testing.T) {
	r := PeercoinRules()
	var back Rules
	require.NoError(t, json.Unmarshal([]byte(r.String()), &back))
	assert.Equal(t, r, back)
	assert.Equal(t, r, r.Copy())
}
