// Package ibr (Inter-Block Records) defines the compact, storable summary of
// a simulated block. A record keeps everything needed to rebuild the shape
// of the block tree and to audit the difficulty chain, without the full
// per-account ledger: the ledger is reduced to its root hash.
package ibr

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-stakesim/inter"
)

// BlockRecord is the summary of one block as written to the record store.
type BlockRecord struct {
	ID      inter.BlockID   `json:"id"`
	Parent  inter.BlockID   `json:"parent"`
	Height  idx.Block       `json:"height"`
	Creator idx.ValidatorID `json:"creator"`
	Time    inter.Timestamp `json:"time"`

	Difficulty      *big.Int `json:"difficulty"`
	TotalDifficulty *big.Int `json:"totalDifficulty"`
	NextDifficulty  *big.Int `json:"nextDifficulty"`

	// LedgerRoot is the fingerprint of the block's ledger snapshot.
	LedgerRoot hash.Hash `json:"ledgerRoot"`
	// TotalAmount is the stake held by all accounts after the block.
	TotalAmount *big.Int `json:"totalAmount"`
}

// FromBlock summarises b.
func FromBlock(b *inter.Block) BlockRecord {
	return BlockRecord{
		ID:              b.ID,
		Parent:          b.Parent,
		Height:          b.Height,
		Creator:         b.Creator,
		Time:            b.Time,
		Difficulty:      new(big.Int).Set(b.Difficulty),
		TotalDifficulty: new(big.Int).Set(b.TotalDifficulty),
		NextDifficulty:  new(big.Int).Set(b.NextDifficulty),
		LedgerRoot:      b.Ledger.Hash(),
		TotalAmount:     b.Ledger.TotalAmount(),
	}
}

// Hash calculates a deterministic hash of the record.
// Two records hash equal only if they describe the same block in the same
// ledger state, so replays of a seed can be compared record by record.
func (r BlockRecord) Hash() hash.Hash {
	return hash.Of(
		bigendian.Uint64ToBytes(uint64(r.ID)),
		bigendian.Uint64ToBytes(uint64(r.Parent)),
		bigendian.Uint64ToBytes(uint64(r.Height)),
		bigendian.Uint32ToBytes(uint32(r.Creator)),
		r.Time.Bytes(),
		bigBytes(r.Difficulty),
		bigBytes(r.TotalDifficulty),
		bigBytes(r.NextDifficulty),
		r.LedgerRoot.Bytes(),
		bigBytes(r.TotalAmount),
	)
}

// bigBytes length-prefixes the magnitude so adjacent fields can't collide.
func bigBytes(v *big.Int) []byte {
	if v == nil {
		return bigendian.Uint32ToBytes(0)
	}
	b := v.Bytes()
	return append(bigendian.Uint32ToBytes(uint32(len(b))), b...)
}
