package simulator

import (
	"math"
	"math/rand"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-stakesim/inter"
)

// Region is the geographic area a node lives in. Latency and bandwidth
// depend on the regions of both ends of a link.
type Region int

// Regions where nodes can exist.
const (
	NorthAmerica Region = iota
	Europe
	SouthAmerica
	AsiaPacific
	Japan
	Australia
	numRegions
)

var regionNames = [numRegions]string{
	"NORTH_AMERICA",
	"EUROPE",
	"SOUTH_AMERICA",
	"ASIA_PACIFIC",
	"JAPAN",
	"AUSTRALIA",
}

func (r Region) String() string {
	if r < 0 || r >= numRegions {
		return "UNKNOWN"
	}
	return regionNames[r]
}

// latency[i][j] is the mean latency from region i to region j, in ms (2019).
var latency = [numRegions][numRegions]int64{
	{32, 124, 184, 198, 151, 189},
	{124, 11, 227, 237, 252, 294},
	{184, 227, 88, 325, 301, 322},
	{198, 237, 325, 85, 58, 198},
	{151, 252, 301, 58, 12, 126},
	{189, 294, 322, 198, 126, 16},
}

// Bandwidth per region in bit/s (2019).
var (
	downloadBandwidth = [numRegions]int64{52000000, 40000000, 18000000, 22800000, 22800000, 29900000}
	uploadBandwidth   = [numRegions]int64{19200000, 20700000, 5800000, 15700000, 10200000, 11300000}
)

// interRegionalBandwidth caps links between two different regions.
const interRegionalBandwidth int64 = 6 * 1000000

// regionDistribution is the share of nodes per region (Bitcoin, 2019).
var regionDistribution = []float64{0.3316, 0.4998, 0.0090, 0.1177, 0.0224, 0.0195}

// degreeDistribution is the cumulative distribution of the number of
// outbound links, for 1..20 links (Bitcoin, 2015).
var degreeDistribution = []float64{
	0.025, 0.05, 0.075, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7,
	0.8, 0.85, 0.9, 0.95, 0.97, 0.97, 0.98, 0.99, 0.995, 1,
}

// DefaultBlockSize is the size of a block on the wire, in bytes.
const DefaultBlockSize = 535000

// Topology is the shape of the simulated peer-to-peer network. Node ids are
// the account ids 1..n; index i describes node i+1.
type Topology struct {
	Regions   []Region
	Degrees   []int
	Neighbors [][]idx.ValidatorID
}

// BuildTopology places n nodes into regions, draws each node's outbound
// degree and links it to that many distinct random peers. Links are
// bidirectional.
func BuildTopology(n int, rng *rand.Rand) Topology {
	regions := spread(n, regionDistribution, false, rng)
	degrees := spread(n, degreeDistribution, true, rng)

	topo := Topology{
		Regions:   make([]Region, n),
		Degrees:   make([]int, n),
		Neighbors: make([][]idx.ValidatorID, n),
	}
	linked := make([]map[int]bool, n)
	for i := 0; i < n; i++ {
		topo.Regions[i] = Region(regions[i])
		topo.Degrees[i] = degrees[i] + 1
		linked[i] = make(map[int]bool)
	}
	for i := 0; i < n; i++ {
		outbound := 0
		for _, j := range rng.Perm(n) {
			if outbound >= topo.Degrees[i] {
				break
			}
			if j == i || linked[i][j] {
				continue
			}
			linked[i][j] = true
			linked[j][i] = true
			topo.Neighbors[i] = append(topo.Neighbors[i], idx.ValidatorID(j+1))
			topo.Neighbors[j] = append(topo.Neighbors[j], idx.ValidatorID(i+1))
			outbound++
		}
	}
	return topo
}

// spread assigns each of n nodes a bucket index following distribution,
// either as shares (cumulative=false) or as a cumulative distribution, and
// shuffles the assignment.
func spread(n int, distribution []float64, cumulative bool, rng *rand.Rand) []int {
	list := make([]int, 0, n+len(distribution))
	acc := 0.0
	for i, share := range distribution {
		if cumulative {
			acc = share
		} else {
			acc += share
		}
		for float64(len(list)) <= float64(n)*acc {
			list = append(list, i)
		}
	}
	for len(list) < n {
		list = append(list, len(distribution)-1)
	}
	rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
	return list[:n]
}

// Latency draws the one-way latency between two regions from a Pareto
// distribution around the table mean.
func Latency(from, to Region, rng *rand.Rand) inter.Timestamp {
	mean := float64(latency[from][to])
	shape := 0.2 * mean
	scale := mean - 5
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return inter.Timestamp(math.Round(scale / math.Pow(u, 1/shape)))
}

// Bandwidth is the throughput of a link in bit/s.
func Bandwidth(from, to Region) int64 {
	bw := uploadBandwidth[from]
	if d := downloadBandwidth[to]; d < bw {
		bw = d
	}
	if from != to && interRegionalBandwidth < bw {
		bw = interRegionalBandwidth
	}
	return bw
}

// TransferTime is the time to push size bytes over a link.
func TransferTime(size uint64, from, to Region) inter.Timestamp {
	return inter.Timestamp(size * 8 * 1000 / uint64(Bandwidth(from, to)))
}

// PropagationDelay is the time a block of size bytes takes from a node in
// region from to arrive at a node in region to.
func PropagationDelay(size uint64, from, to Region, rng *rand.Rand) inter.Timestamp {
	return Latency(from, to, rng) + TransferTime(size, from, to)
}
