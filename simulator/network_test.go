package simulator

import (
	"math/rand"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-stakesim/inter"
)

func TestTables(t *testing.T) {
	for i := Region(0); i < numRegions; i++ {
		for j := Region(0); j < numRegions; j++ {
			assert.Equal(t, latency[i][j], latency[j][i], "%s-%s", i, j)
			assert.Greater(t, latency[i][j], int64(5))
		}
	}
	sum := 0.0
	for _, share := range regionDistribution {
		sum += share
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
	assert.Equal(t, 1.0, degreeDistribution[len(degreeDistribution)-1])
	assert.Equal(t, "JAPAN", Japan.String())
	assert.Equal(t, "UNKNOWN", Region(42).String())
}

func TestBandwidth(t *testing.T) {
	// same region: min(upload, download)
	assert.Equal(t, int64(19200000), Bandwidth(NorthAmerica, NorthAmerica))
	assert.Equal(t, int64(5800000), Bandwidth(SouthAmerica, SouthAmerica))
	// across regions the inter-regional link caps it
	assert.Equal(t, int64(6000000), Bandwidth(NorthAmerica, Europe))
	assert.Equal(t, int64(5800000), Bandwidth(SouthAmerica, Europe))

	// 535000 bytes at 19.2 Mbit/s
	assert.Equal(t, inter.Timestamp(535000*8*1000/19200000), TransferTime(535000, NorthAmerica, NorthAmerica))
}

func TestLatency_ParetoFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		l := Latency(Europe, Europe, rng)
		// scale is mean-5 and the Pareto draw never goes below its scale
		assert.GreaterOrEqual(t, uint64(l), uint64(6))
	}
}

func TestBuildTopology(t *testing.T) {
	const n = 200
	topo := BuildTopology(n, rand.New(rand.NewSource(5)))

	require.Len(t, topo.Regions, n)
	require.Len(t, topo.Neighbors, n)
	perRegion := make(map[Region]int)
	for i := 0; i < n; i++ {
		perRegion[topo.Regions[i]]++
		assert.GreaterOrEqual(t, topo.Degrees[i], 1)
		assert.LessOrEqual(t, topo.Degrees[i], len(degreeDistribution))
		assert.GreaterOrEqual(t, len(topo.Neighbors[i]), 1, "node %d is isolated", i+1)

		seen := make(map[uint32]bool)
		for _, nb := range topo.Neighbors[i] {
			assert.NotEqual(t, uint32(i+1), uint32(nb), "self link")
			assert.False(t, seen[uint32(nb)], "duplicate link")
			seen[uint32(nb)] = true
			assert.Contains(t, topo.Neighbors[nb-1], idx.ValidatorID(i+1), "link is one-way")
		}
	}
	// Europe and North America dominate
	assert.Greater(t, perRegion[Europe], perRegion[SouthAmerica])
	assert.Greater(t, perRegion[NorthAmerica], perRegion[Australia])

	again := BuildTopology(n, rand.New(rand.NewSource(5)))
	assert.Equal(t, topo, again)
}

func TestBuildTopology_Tiny(t *testing.T) {
	topo := BuildTopology(1, rand.New(rand.NewSource(1)))
	assert.Empty(t, topo.Neighbors[0])

	topo = BuildTopology(2, rand.New(rand.NewSource(1)))
	assert.Len(t, topo.Neighbors[0], 1)
	assert.Len(t, topo.Neighbors[1], 1)
}
