package genesis

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTake_Exhaustion(t *testing.T) {
	feed := NewSliceFeed(Uniform(2, 10, 0)...)

	_, err := Take(feed, 3)
	assert.True(t, errors.Is(err, ErrFeedExhausted))
	assert.Contains(t, err.Error(), "account 3 of 3")
}

func TestTake_NegativeAmount(t *testing.T) {
	feed := NewSliceFeed(
		Allocation{Amount: big.NewInt(1)},
		Allocation{Amount: big.NewInt(-5)},
	)
	_, err := Take(feed, 2)
	assert.True(t, errors.Is(err, ErrNegativeAmount))
}

func TestSliceFeed_CopiesAmounts(t *testing.T) {
	src := Uniform(1, 7, 3)
	allocs, err := Take(NewSliceFeed(src...), 1)
	require.NoError(t, err)

	allocs[0].Amount.SetInt64(99)
	assert.Equal(t, int64(7), src[0].Amount.Int64())

	l := Ledger(allocs)
	require.Len(t, l, 1)
	assert.Equal(t, int64(99), l[0].Amount.Int64())
	assert.Equal(t, uint64(3), l[0].Age)
}

func TestFileFeed(t *testing.T) {
	amounts := strings.NewReader("100\n\n200\n300\n")
	ages := strings.NewReader("0\n5\n7\n")

	allocs, err := Take(NewFileFeed(amounts, ages), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(200), allocs[1].Amount.Int64())
	assert.Equal(t, uint64(5), allocs[1].Age)
	assert.Equal(t, uint64(7), allocs[2].Age)

	_, err = Take(NewFileFeed(strings.NewReader("1\n2\n"), strings.NewReader("1\n")), 2)
	assert.True(t, errors.Is(err, ErrFeedExhausted))

	_, err = Take(NewFileFeed(strings.NewReader("x\n"), strings.NewReader("1\n")), 1)
	assert.Error(t, err)
}

func TestConfig_LoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	amountPath := filepath.Join(dir, "amount.txt")
	agePath := filepath.Join(dir, "age.txt")
	require.NoError(t, os.WriteFile(amountPath, []byte("10\n20\n"), 0o600))
	require.NoError(t, os.WriteFile(agePath, []byte("1\n2\n"), 0o600))

	cfg := Config{Source: SourceFile, AmountFile: amountPath, AgeFile: agePath}
	allocs, err := cfg.Load(2)
	require.NoError(t, err)
	assert.Equal(t, int64(20), allocs[1].Amount.Int64())

	_, err = cfg.Load(3)
	assert.True(t, errors.Is(err, ErrFeedExhausted))

	cfg.AgeFile = filepath.Join(dir, "missing.txt")
	_, err = cfg.Load(1)
	assert.Error(t, err)
}

func TestGaussianFeed_SeededAndNonNegative(t *testing.T) {
	a, err := Take(NewGaussianFeed(42, 10, 100, 2, 5), 200)
	require.NoError(t, err)
	b, err := Take(NewGaussianFeed(42, 10, 100, 2, 5), 200)
	require.NoError(t, err)

	for i := range a {
		assert.GreaterOrEqual(t, a[i].Amount.Sign(), 0)
		assert.Equal(t, 0, a[i].Amount.Cmp(b[i].Amount))
		assert.Equal(t, a[i].Age, b[i].Age)
	}
}

func TestConfig_UnknownSource(t *testing.T) {
	_, err := Config{Source: "csv"}.Load(1)
	assert.Error(t, err)

	allocs, err := DefaultConfig().Load(4)
	require.NoError(t, err)
	assert.Len(t, allocs, 4)
	for _, a := range allocs {
		assert.Equal(t, uint64(1), a.Age)
	}
}
