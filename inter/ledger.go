package inter

import (
	"crypto/sha256"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/rlp"
)

// Ledger is the full per-account snapshot carried by a block. Account ids
// are 1-based: the state of account id lives at index id-1.
type Ledger []StakeState

// AccountIDs returns the ids of all accounts in ledger order.
func (l Ledger) AccountIDs() []idx.ValidatorID {
	ids := make([]idx.ValidatorID, len(l))
	for i := range l {
		ids[i] = idx.ValidatorID(i + 1)
	}
	return ids
}

// Has reports whether the ledger holds an entry for id.
func (l Ledger) Has(id idx.ValidatorID) bool {
	return id >= 1 && int(id) <= len(l)
}

// Account returns the state of id. The returned value is read-only: its
// Amount still points into the ledger.
func (l Ledger) Account(id idx.ValidatorID) (StakeState, bool) {
	if !l.Has(id) {
		return StakeState{}, false
	}
	return l[id-1], true
}

// Copy deep-copies every account so sibling branches never share a big.Int.
func (l Ledger) Copy() Ledger {
	cp := make(Ledger, len(l))
	for i, s := range l {
		cp[i] = s.Clone()
	}
	return cp
}

// TotalAmount sums the stake of all accounts.
func (l Ledger) TotalAmount() *big.Int {
	total := new(big.Int)
	for _, s := range l {
		total.Add(total, s.Amount)
	}
	return total
}

// TotalCoinAge sums the uncapped coin-age of all accounts.
func (l Ledger) TotalCoinAge() *big.Int {
	total := new(big.Int)
	for _, s := range l {
		total.Add(total, s.CoinAge())
	}
	return total
}

// TotalCoinDayWeight sums the capped coin-day-weight of all accounts.
func (l Ledger) TotalCoinDayWeight(lowCap, highCap uint64) *big.Int {
	total := new(big.Int)
	for _, s := range l {
		total.Add(total, s.CoinDayWeight(lowCap, highCap))
	}
	return total
}

// Hash fingerprints the snapshot as the SHA256 of its RLP encoding.
func (l Ledger) Hash() hash.Hash {
	hasher := sha256.New()
	err := rlp.Encode(hasher, l)
	if err != nil {
		panic("can't hash: " + err.Error())
	}
	return hash.BytesToHash(hasher.Sum(nil))
}
