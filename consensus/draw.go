package consensus

import (
	"math"
	"math/big"
	"math/rand"

	"github.com/rony4d/go-stakesim/inter"
)

// minProbability is the per-trial win chance below which a node is treated
// as unable to mint: 1-p rounds to 1 in float64 and the draw diverges.
var minProbability = math.Pow(2, -53)

// drawDelay samples the waiting time until a node with stake weight w wins
// a mint trial against target d. Each trial of length trial succeeds with
// p = w/d, so the number of trials is geometric and the delay is
// ln(u)/ln(1-p) trials for u uniform in (0,1).
func drawDelay(w, d *big.Int, trial inter.Timestamp, rng *rand.Rand) (inter.Timestamp, bool) {
	if w == nil || w.Sign() <= 0 {
		return 0, false
	}
	if d == nil || d.Sign() <= 0 {
		return 0, true
	}
	p, _ := new(big.Float).Quo(new(big.Float).SetInt(w), new(big.Float).SetInt(d)).Float64()
	if p <= minProbability {
		return 0, false
	}
	if p >= 1 {
		return 0, true
	}
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	delay := math.Log(u) / math.Log1p(-p) * float64(trial)
	if math.IsNaN(delay) || delay >= math.MaxInt64 {
		return 0, false
	}
	return inter.Timestamp(delay), true
}
