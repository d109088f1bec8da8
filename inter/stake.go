package inter

import (
	"math/big"
)

// StakeState is the economic record of one account as of one block: the
// staked amount and the number of blocks since the account last minted.
//
// A StakeState is owned by exactly one block's Ledger. Anything that needs
// to change it for a child block works on a Clone.
type StakeState struct {
	Amount *big.Int
	Age    uint64
}

// NewStakeState copies amount, so the caller keeps ownership of its value.
func NewStakeState(amount *big.Int, age uint64) StakeState {
	a := new(big.Int)
	if amount != nil {
		a.Set(amount)
	}
	return StakeState{Amount: a, Age: age}
}

// Clone returns a copy that shares no memory with s.
func (s StakeState) Clone() StakeState {
	return NewStakeState(s.Amount, s.Age)
}

// IncreaseAge advances the account by one block.
func (s *StakeState) IncreaseAge() {
	s.Age++
}

// ResetAge marks the account as having just minted.
func (s *StakeState) ResetAge() {
	s.Age = 0
}

// CoinAge is amount * age, the uncapped stake weight.
func (s StakeState) CoinAge() *big.Int {
	return new(big.Int).Mul(s.Amount, new(big.Int).SetUint64(s.Age))
}

// CoinDayWeight is the stake weight with age passed through the
// [lowCap, highCap] window: zero up to lowCap blocks, linear in between and
// constant from highCap on.
func (s StakeState) CoinDayWeight(lowCap, highCap uint64) *big.Int {
	age := s.Age
	if age > highCap {
		age = highCap
	}
	if age <= lowCap {
		return new(big.Int)
	}
	return new(big.Int).Mul(s.Amount, new(big.Int).SetUint64(age-lowCap))
}

// Reward credits floor(CoinAge * rate) to the account and returns the
// credited amount. It must run before ResetAge, since the reward is a
// function of the age accumulated so far.
func (s *StakeState) Reward(rate *big.Rat) *big.Int {
	if rate == nil || rate.Sign() <= 0 {
		return new(big.Int)
	}
	r := new(big.Int).Mul(s.CoinAge(), rate.Num())
	r.Quo(r, rate.Denom())
	s.Amount = new(big.Int).Add(s.Amount, r)
	return r
}
