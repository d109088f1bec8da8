package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// CommonFlags returns the base set of CLI flags shared across commands.

func CommonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "YAML configuration file, applied over the preset and under the flags",
		},
		cli.StringFlag{
			Name:  "preset",
			Usage: "Named run profile (default|lite|peercoin|coinage)",
			Value: "default",
		},
		cli.StringFlag{
			Name:  "log.format",
			Usage: "Log output format (text|json)",
			Value: "text",
		},
		cli.IntFlag{
			Name:  "log.verbosity",
			Usage: "Logging verbosity (0=crit,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 3,
		},
		cli.BoolFlag{
			Name:  "log.color",
			Usage: "Enable colored log output",
		},
		cli.BoolFlag{
			Name:  "metrics",
			Usage: "Enable collection of Prometheus-compatible metrics",
		},
		cli.StringFlag{
			Name:  "metrics.addr",
			Usage: "Metrics server listening address (host:port)",
			Value: "127.0.0.1:6060",
		},
		cli.StringFlag{
			Name:  "sentry.dsn",
			Usage: "Sentry DSN that aborted runs are reported to",
		},
	}
}

// OutputFlags controls where the results of a run are written.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "events",
			Usage: "File the JSON block event stream is appended to (\"-\" for stdout)",
		},
		cli.BoolFlag{
			Name:  "events.verbose",
			Usage: "Include per-node adoption and rejection events in the stream",
		},
		cli.StringFlag{
			Name:  "store",
			Usage: "LevelDB directory the block records and run summaries are kept in",
		},
		cli.IntFlag{
			Name:  "store.cache",
			Usage: "Megabytes of memory allocated to the record store cache",
			Value: 16,
		},
		cli.StringFlag{
			Name:  "summary",
			Usage: "File the YAML run summary is written to (\"-\" for stdout)",
		},
	}
}
