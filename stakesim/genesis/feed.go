// Package genesis supplies the initial per-account stake of a run. The
// consensus engine never invents balances: genesis consumes exactly one
// Allocation per simulated account, in account order, from a Feed.
//
// Key concepts:
//   - Allocation: the (amount, age) pair of one account at genesis
//   - Feed: an ordered source of allocations (static list, text files, or
//     seeded normal draws)
//   - Take: pulls exactly n allocations, failing before any block is built
//     if the feed runs dry
//
// Usage:
//
//	allocs, err := genesis.DefaultConfig().Load(nodes)
//	ledger := genesis.Ledger(allocs)
package genesis

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/rony4d/go-stakesim/inter"
)

var (
	// ErrFeedExhausted is returned when a feed has no allocation left.
	ErrFeedExhausted = errors.New("account initialization feed exhausted")
	// ErrNegativeAmount is returned for an allocation below zero.
	ErrNegativeAmount = errors.New("negative genesis amount")
)

// Allocation is the genesis state of one account.
type Allocation struct {
	Amount *big.Int
	Age    uint64
}

// Feed yields allocations in account order.
type Feed interface {
	// Next returns the next allocation, or ErrFeedExhausted.
	Next() (Allocation, error)
}

// Take consumes exactly n allocations from feed.
func Take(feed Feed, n int) ([]Allocation, error) {
	out := make([]Allocation, 0, n)
	for i := 0; i < n; i++ {
		a, err := feed.Next()
		if err != nil {
			return nil, fmt.Errorf("account %d of %d: %w", i+1, n, err)
		}
		if a.Amount == nil {
			a.Amount = new(big.Int)
		}
		if a.Amount.Sign() < 0 {
			return nil, fmt.Errorf("account %d: %w: %s", i+1, ErrNegativeAmount, a.Amount)
		}
		out = append(out, a)
	}
	return out, nil
}

// Ledger turns allocations into the genesis ledger. Account i+1 gets
// allocs[i]; amounts are copied.
func Ledger(allocs []Allocation) inter.Ledger {
	l := make(inter.Ledger, len(allocs))
	for i, a := range allocs {
		l[i] = inter.NewStakeState(a.Amount, a.Age)
	}
	return l
}

// SliceFeed replays a fixed list of allocations.
type SliceFeed struct {
	allocs []Allocation
	pos    int
}

// NewSliceFeed creates a feed over allocs.
func NewSliceFeed(allocs ...Allocation) *SliceFeed {
	return &SliceFeed{allocs: allocs}
}

// Uniform builds n identical allocations.
func Uniform(n int, amount int64, age uint64) []Allocation {
	out := make([]Allocation, n)
	for i := range out {
		out[i] = Allocation{Amount: big.NewInt(amount), Age: age}
	}
	return out
}

// Next implements Feed.
func (f *SliceFeed) Next() (Allocation, error) {
	if f.pos >= len(f.allocs) {
		return Allocation{}, ErrFeedExhausted
	}
	a := f.allocs[f.pos]
	f.pos++
	return Allocation{Amount: new(big.Int).Set(a.Amount), Age: a.Age}, nil
}

// GaussianFeed draws amounts and ages from normal distributions, clamped at
// zero. It owns its generator, so the genesis state of a run depends only on
// the feed seed.
type GaussianFeed struct {
	rng        *rand.Rand
	amountMean float64
	amountSD   float64
	ageMean    float64
	ageSD      float64
}

// NewGaussianFeed creates a seeded normal feed.
func NewGaussianFeed(seed int64, amountMean, amountSD, ageMean, ageSD float64) *GaussianFeed {
	return &GaussianFeed{
		rng:        rand.New(rand.NewSource(seed)),
		amountMean: amountMean,
		amountSD:   amountSD,
		ageMean:    ageMean,
		ageSD:      ageSD,
	}
}

// Next implements Feed. It never runs out.
func (f *GaussianFeed) Next() (Allocation, error) {
	amount := math.Max(f.rng.NormFloat64()*f.amountSD+f.amountMean, 0)
	age := math.Max(f.rng.NormFloat64()*f.ageSD+f.ageMean, 0)
	a, _ := new(big.Float).SetFloat64(math.Floor(amount)).Int(nil)
	return Allocation{Amount: a, Age: uint64(age)}, nil
}

// FileFeed reads amounts and ages from two text files in lockstep, one
// decimal value per line. Blank lines are skipped.
type FileFeed struct {
	amounts *bufio.Scanner
	ages    *bufio.Scanner
	closers []io.Closer
	line    int
}

// NewFileFeed wraps two readers, one value per line each.
func NewFileFeed(amounts, ages io.Reader) *FileFeed {
	return &FileFeed{
		amounts: bufio.NewScanner(amounts),
		ages:    bufio.NewScanner(ages),
	}
}

// OpenFileFeed opens the amount and age files.
func OpenFileFeed(amountPath, agePath string) (*FileFeed, error) {
	amounts, err := os.Open(amountPath)
	if err != nil {
		return nil, fmt.Errorf("open amount file: %w", err)
	}
	ages, err := os.Open(agePath)
	if err != nil {
		amounts.Close()
		return nil, fmt.Errorf("open age file: %w", err)
	}
	f := NewFileFeed(amounts, ages)
	f.closers = []io.Closer{amounts, ages}
	return f, nil
}

// Next implements Feed.
func (f *FileFeed) Next() (Allocation, error) {
	f.line++
	amountText, err := nextValue(f.amounts)
	if err != nil {
		return Allocation{}, err
	}
	ageText, err := nextValue(f.ages)
	if err != nil {
		return Allocation{}, err
	}
	amount, ok := new(big.Int).SetString(amountText, 10)
	if !ok {
		return Allocation{}, fmt.Errorf("entry %d: bad amount %q", f.line, amountText)
	}
	age, err := strconv.ParseUint(ageText, 10, 64)
	if err != nil {
		return Allocation{}, fmt.Errorf("entry %d: bad age %q: %w", f.line, ageText, err)
	}
	return Allocation{Amount: amount, Age: age}, nil
}

// Close releases the files opened by OpenFileFeed.
func (f *FileFeed) Close() error {
	var first error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	f.closers = nil
	return first
}

func nextValue(s *bufio.Scanner) (string, error) {
	for s.Scan() {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			return text, nil
		}
	}
	if err := s.Err(); err != nil {
		return "", err
	}
	return "", ErrFeedExhausted
}
