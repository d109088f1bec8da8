package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// SimulationFlags covers the shape of a run and its simulated network.

func SimulationFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "nodes",
			Usage: "Number of simulated nodes, one account each",
		},
		cli.Uint64Flag{
			Name:  "endheight",
			Usage: "Stop once any node's head reaches this height",
		},
		cli.DurationFlag{
			Name:  "maxtime",
			Usage: "Stop once simulated time passes this point (0 = no limit)",
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "Seed of the run's random generator",
		},
		cli.Uint64Flag{
			Name:  "blocksize",
			Usage: "Block size in bytes used for transfer delays",
		},
		cli.DurationFlag{
			Name:  "progress",
			Usage: "Wall clock interval between progress logs (0 = off)",
		},
	}
}

// RulesFlags isolates the consensus rule knobs.
func RulesFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "rules",
			Usage: "Consensus rules preset (peercoin|coinage|fake)",
		},
		cli.StringFlag{
			Name:  "algorithm",
			Usage: "Consensus algorithm (coinage|coindayweight)",
		},
		cli.DurationFlag{
			Name:  "blocks.interval",
			Usage: "Target block interval",
		},
		cli.DurationFlag{
			Name:  "blocks.trial",
			Usage: "Length of one minting round",
		},
		cli.Uint64Flag{
			Name:  "blocks.daa",
			Usage: "Difficulty adjustment lookback, in blocks",
		},
		cli.Uint64Flag{
			Name:  "cdw.lowcap",
			Usage: "Age at or below which stake weighs nothing, in blocks",
		},
		cli.Uint64Flag{
			Name:  "cdw.highcap",
			Usage: "Age from which stake weight stops growing, in blocks",
		},
		cli.Float64Flag{
			Name:  "economy.reward",
			Usage: "Fraction of the creator's coin-age credited per block",
		},
	}
}

// GenesisFlags selects the initial allocation of stake.
func GenesisFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "genesis.source",
			Usage: "Where initial allocations come from (static|file|gaussian)",
		},
		cli.Int64Flag{
			Name:  "genesis.amount",
			Usage: "Amount of every account (static source)",
		},
		cli.Uint64Flag{
			Name:  "genesis.age",
			Usage: "Age of every account, in blocks (static source)",
		},
		cli.StringFlag{
			Name:  "genesis.amountfile",
			Usage: "File with one amount per line (file source)",
		},
		cli.StringFlag{
			Name:  "genesis.agefile",
			Usage: "File with one age per line (file source)",
		},
		cli.Int64Flag{
			Name:  "genesis.seed",
			Usage: "Seed of the allocation generator (gaussian source)",
		},
		cli.Float64Flag{
			Name:  "genesis.amountmean",
			Usage: "Mean amount (gaussian source)",
		},
		cli.Float64Flag{
			Name:  "genesis.amountsd",
			Usage: "Amount standard deviation (gaussian source)",
		},
		cli.Float64Flag{
			Name:  "genesis.agemean",
			Usage: "Mean age (gaussian source)",
		},
		cli.Float64Flag{
			Name:  "genesis.agesd",
			Usage: "Age standard deviation (gaussian source)",
		},
	}
}

// SweepFlags tune the multi-seed sweep command.
func SweepFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "seeds",
			Usage: "Comma-separated seeds, or a from-to range, to run",
			Value: "1-4",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "Number of runs executed concurrently",
			Value: 4,
		},
	}
}

// AllFlags is every flag the launcher reads, in help order.
func AllFlags() []cli.Flag {
	var all []cli.Flag
	all = append(all, CommonFlags()...)
	all = append(all, SimulationFlags()...)
	all = append(all, RulesFlags()...)
	all = append(all, GenesisFlags()...)
	all = append(all, OutputFlags()...)
	all = append(all, SweepFlags()...)
	return all
}
