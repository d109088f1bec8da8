// Package iblockproc derives the ledger of a new block from its parent.
//
// Every block applies the same three steps to a deep copy of the parent
// ledger, in this order:
//  1. every account ages by one block;
//  2. the creator is credited floor(coinAge * rate) at its new age;
//  3. the creator's age is reset to zero.
//
// Both consensus variants go through this path, so the conservation and
// age-reset laws hold for either of them.
package iblockproc

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-stakesim/inter"
)

var (
	// ErrUnknownCreator is returned when the creator has no ledger entry.
	ErrUnknownCreator = errors.New("creator has no ledger entry")
	// ErrBrokenTransition is wrapped by every Verify failure.
	ErrBrokenTransition = errors.New("ledger transition breaks block laws")
)

// Outcome is the result of applying one block to a ledger.
type Outcome struct {
	// Ledger is the freshly built snapshot; the caller owns it.
	Ledger inter.Ledger
	// Reward is the amount credited to the creator.
	Reward *big.Int
}

// Apply builds the ledger of a block minted by creator on top of parent.
// The parent ledger is left untouched.
func Apply(parent inter.Ledger, creator idx.ValidatorID, rate *big.Rat) (Outcome, error) {
	if !parent.Has(creator) {
		return Outcome{}, fmt.Errorf("%w: account %d of %d", ErrUnknownCreator, creator, len(parent))
	}
	next := parent.Copy()
	for i := range next {
		next[i].IncreaseAge()
	}
	st := &next[creator-1]
	reward := st.Reward(rate)
	st.ResetAge()
	return Outcome{Ledger: next, Reward: reward}, nil
}

// Diff is the per-account change between two ledgers of the same size.
type Diff struct {
	Account idx.ValidatorID
	Amount  *big.Int
	// AgeBefore and AgeAfter are reported as-is; an account that minted
	// shows AgeAfter == 0.
	AgeBefore uint64
	AgeAfter  uint64
}

// Compare lists the accounts whose amount or age differ between before and
// after.
func Compare(before, after inter.Ledger) ([]Diff, error) {
	if len(before) != len(after) {
		return nil, fmt.Errorf("ledger size mismatch: %d != %d", len(before), len(after))
	}
	var diffs []Diff
	for i := range before {
		b, a := before[i], after[i]
		delta := new(big.Int).Sub(a.Amount, b.Amount)
		if delta.Sign() == 0 && a.Age == b.Age {
			continue
		}
		diffs = append(diffs, Diff{
			Account:   idx.ValidatorID(i + 1),
			Amount:    delta,
			AgeBefore: b.Age,
			AgeAfter:  a.Age,
		})
	}
	return diffs, nil
}

// Verify checks that after is what one block by creator does to before:
// the creator gains exactly reward and ends at age zero, every other
// account keeps its amount and ages by one.
func Verify(before, after inter.Ledger, creator idx.ValidatorID, reward *big.Int) error {
	diffs, err := Compare(before, after)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrokenTransition, err)
	}
	if reward == nil {
		reward = new(big.Int)
	}
	changed := make(map[idx.ValidatorID]Diff, len(diffs))
	for _, d := range diffs {
		changed[d.Account] = d
	}
	for _, id := range before.AccountIDs() {
		d, ok := changed[id]
		if id == creator {
			// age 0 to 0 with no reward leaves the creator unchanged
			if !ok {
				if reward.Sign() != 0 {
					return fmt.Errorf("%w: creator %d not credited %s", ErrBrokenTransition, id, reward)
				}
				continue
			}
			if d.AgeAfter != 0 {
				return fmt.Errorf("%w: creator %d age %d after minting", ErrBrokenTransition, id, d.AgeAfter)
			}
			if d.Amount.Cmp(reward) != 0 {
				return fmt.Errorf("%w: creator %d credited %s, reward is %s", ErrBrokenTransition, id, d.Amount, reward)
			}
			continue
		}
		if !ok || d.AgeAfter != d.AgeBefore+1 {
			return fmt.Errorf("%w: account %d did not age by one block", ErrBrokenTransition, id)
		}
		if d.Amount.Sign() != 0 {
			return fmt.Errorf("%w: account %d amount changed by %s", ErrBrokenTransition, id, d.Amount)
		}
	}
	return nil
}
