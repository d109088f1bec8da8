// Package stakesim defines the consensus rules of a simulated proof-of-stake
// network.
//
// This package provides:
//   - The consensus algorithm identifiers (coin-age, coin-day-weight)
//   - Block timing rules: target interval, mint trial length, DAA window
//   - Coin-day-weight age caps
//   - Economic parameters (staking reward)
//
// The Rules type is the single place every consensus-critical parameter of a
// run lives in. Nodes of the same run share one Rules value.
package stakesim

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rony4d/go-stakesim/inter"
)

// Algorithm names a consensus variant.
type Algorithm string

const (
	// AlgoCoinAge is the baseline variant: difficulty follows the total
	// uncapped coin-age directly, with no lookback.
	AlgoCoinAge Algorithm = "coinage"

	// AlgoCoinDayWeight caps the age window of each account and retargets
	// difficulty over a lookback of DAABlocks blocks.
	AlgoCoinDayWeight Algorithm = "coindayweight"
)

// Algorithms lists every supported variant.
func Algorithms() []Algorithm {
	return []Algorithm{AlgoCoinAge, AlgoCoinDayWeight}
}

// ParseAlgorithm maps a name from the command line or a config file to an
// Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown consensus algorithm %q (want one of %v)", s, Algorithms())
}

// Default timing, in simulated milliseconds.
const (
	// DefaultTargetInterval is the block interval the difficulty aims for.
	DefaultTargetInterval = inter.Timestamp(10 * time.Minute / time.Millisecond)

	// DefaultMintTrial is the length of one minting round: the stake
	// weight / difficulty ratio is the win probability of one round.
	DefaultMintTrial = inter.Timestamp(time.Second / time.Millisecond)
)

// ErrInvalidRules is wrapped by every Validate failure.
var ErrInvalidRules = errors.New("invalid rules")

// Rules describes the complete consensus configuration of a run.
type Rules struct {
	// Name identifies the preset the rules came from ("peercoin", "fake", ...).
	Name string `yaml:"name"`

	// Algorithm selects the consensus variant.
	Algorithm Algorithm `yaml:"algorithm"`

	// Blocks options - timing and retargeting
	Blocks BlocksRules `yaml:"blocks"`

	// CoinDayWeight options - only used by AlgoCoinDayWeight
	CoinDayWeight CoinDayWeightRules `yaml:"coinDayWeight"`

	// Economy options - rewards
	Economy EconomyRules `yaml:"economy"`
}

// BlocksRules contains the block production timing rules.
type BlocksRules struct {
	// TargetInterval is the desired mean time between blocks.
	TargetInterval inter.Timestamp `yaml:"targetInterval"`

	// MintTrial is the time unit of one minting round.
	MintTrial inter.Timestamp `yaml:"mintTrial"`

	// DAABlocks is the lookback window of the difficulty adjustment.
	// Ignored by AlgoCoinAge.
	DAABlocks uint64 `yaml:"daaBlocks"`
}

// CoinDayWeightRules bounds the age that counts towards stake weight.
// Age at or below LowCap weighs nothing, age from HighCap on weighs the same.
type CoinDayWeightRules struct {
	LowCap  uint64 `yaml:"lowCap"`
	HighCap uint64 `yaml:"highCap"`
}

// EconomyRules contains the economic parameters of the network.
type EconomyRules struct {
	// StakingReward is the fraction of the creator's coin-age credited to it
	// per minted block.
	StakingReward float64 `yaml:"stakingReward"`
}

// PeercoinRules mimics Peercoin's timing: ten minute blocks, a one day
// retarget window, and a 30..90 day coin-day-weight window expressed in
// blocks.
func PeercoinRules() Rules {
	return Rules{
		Name:      "peercoin",
		Algorithm: AlgoCoinDayWeight,
		Blocks: BlocksRules{
			TargetInterval: DefaultTargetInterval,
			MintTrial:      DefaultMintTrial,
			DAABlocks:      144, // one day of ten minute blocks
		},
		CoinDayWeight: CoinDayWeightRules{
			LowCap:  30 * 144,
			HighCap: 90 * 144,
		},
		Economy: EconomyRules{
			StakingReward: 0.01 / (365 * 144), // 1% a year, per block of age
		},
	}
}

// CoinAgeRules is the baseline variant with the same timing as PeercoinRules.
func CoinAgeRules() Rules {
	cfg := PeercoinRules()
	cfg.Name = "coinage"
	cfg.Algorithm = AlgoCoinAge
	cfg.Blocks.DAABlocks = 0
	cfg.CoinDayWeight = CoinDayWeightRules{}
	return cfg
}

// FakeRules returns accelerated rules for tests and local experiments:
//   - ten second blocks
//   - a ten block retarget window
//   - no low cap, and a high cap of 60 blocks
//   - a much larger reward, so balances visibly move
func FakeRules() Rules {
	return Rules{
		Name:      "fake",
		Algorithm: AlgoCoinDayWeight,
		Blocks: BlocksRules{
			TargetInterval: inter.Timestamp(10 * time.Second / time.Millisecond),
			MintTrial:      DefaultMintTrial,
			DAABlocks:      10,
		},
		CoinDayWeight: CoinDayWeightRules{
			LowCap:  0,
			HighCap: 60,
		},
		Economy: EconomyRules{
			StakingReward: 0.001,
		},
	}
}

// RulesByName returns a named rules preset.
func RulesByName(name string) (Rules, error) {
	switch name {
	case "peercoin":
		return PeercoinRules(), nil
	case "coinage":
		return CoinAgeRules(), nil
	case "fake":
		return FakeRules(), nil
	}
	return Rules{}, fmt.Errorf("unknown rules preset %q", name)
}

// RewardRate converts StakingReward into the exact rational the ledger uses.
// A non-positive or non-finite reward maps to zero.
func (r Rules) RewardRate() *big.Rat {
	rate := new(big.Rat)
	if r.Economy.StakingReward <= 0 {
		return rate
	}
	if rate.SetFloat64(r.Economy.StakingReward) == nil {
		return new(big.Rat)
	}
	return rate
}

// Validate reports the first parameter that would make a run meaningless.
func (r Rules) Validate() error {
	if _, err := ParseAlgorithm(string(r.Algorithm)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if r.Blocks.TargetInterval == 0 {
		return fmt.Errorf("%w: target interval must be positive", ErrInvalidRules)
	}
	if r.Blocks.MintTrial == 0 {
		return fmt.Errorf("%w: mint trial must be positive", ErrInvalidRules)
	}
	if r.Economy.StakingReward < 0 {
		return fmt.Errorf("%w: staking reward %v is negative", ErrInvalidRules, r.Economy.StakingReward)
	}
	if r.Algorithm == AlgoCoinDayWeight {
		if r.Blocks.DAABlocks == 0 {
			return fmt.Errorf("%w: DAA window must be at least one block", ErrInvalidRules)
		}
		if r.CoinDayWeight.HighCap <= r.CoinDayWeight.LowCap {
			return fmt.Errorf("%w: high cap %d must be above low cap %d", ErrInvalidRules, r.CoinDayWeight.HighCap, r.CoinDayWeight.LowCap)
		}
	}
	return nil
}

// Copy returns an independent copy of the rules.
func (r Rules) Copy() Rules {
	return r
}

// String returns a JSON representation of Rules for logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
