package launcher

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/rony4d/go-stakesim/flags"
	"github.com/rony4d/go-stakesim/integration"
	"github.com/rony4d/go-stakesim/utils/workerpool"
)

func newApp() *cli.App {
	app := flags.NewApp()
	app.Action = runAction
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Run one simulation (default command)",
			Action: runAction,
			Flags:  flags.AllFlags(),
		},
		{
			Name:   "sweep",
			Usage:  "Run the same configuration over several seeds concurrently",
			Action: sweepAction,
			Flags:  flags.AllFlags(),
		},
		{
			Name:   "presets",
			Usage:  "List the named run profiles",
			Action: presetsAction,
		},
		{
			Name:   "dumpconfig",
			Usage:  "Print the merged configuration as YAML",
			Action: dumpConfigAction,
			Flags:  flags.AllFlags(),
		},
	}
	return app
}

// Launch parses args and executes the selected command.
func Launch(args []string) error {
	return newApp().Run(args)
}

// prepare merges the config and installs logging.
func prepare(ctx *cli.Context) (Config, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return cfg, err
	}
	w := ctx.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	if err := setupLogging(cfg.Logging, w); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT/SIGTERM, ending runs as cancelled.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runAction(ctx *cli.Context) error {
	cfg, err := prepare(ctx)
	if err != nil {
		return err
	}
	runCtx, cancel := signalContext()
	defer cancel()

	s, err := openSinks(runCtx, cfg, ctx.App.Writer)
	if err != nil {
		return err
	}
	defer s.Close()

	run := fmt.Sprintf("%s-%d", cfg.Preset, cfg.Simulation.Seed)
	res, err := runOne(runCtx, cfg, run, s)
	if err != nil {
		return err
	}
	return writeYAML(cfg.Output.SummaryFile, ctx.App.Writer, newSummaryDoc(run, res, true))
}

func sweepAction(ctx *cli.Context) error {
	cfg, err := prepare(ctx)
	if err != nil {
		return err
	}
	if len(cfg.Sweep.Seeds) == 0 {
		return fmt.Errorf("sweep needs at least one seed")
	}
	runCtx, cancel := signalContext()
	defer cancel()

	s, err := openSinks(runCtx, cfg, ctx.App.Writer)
	if err != nil {
		return err
	}
	defer s.Close()

	log.Info("Sweep started", "runs", len(cfg.Sweep.Seeds), "workers", cfg.Sweep.Workers)
	docs, err := workerpool.Map(runCtx, cfg.Sweep.Workers, cfg.Sweep.Seeds, func(c context.Context, _ int, seed int64) (summaryDoc, error) {
		runCfg := cfg
		runCfg.Simulation.Seed = seed
		run := fmt.Sprintf("%s-%d", cfg.Preset, seed)
		res, err := runOne(c, runCfg, run, s)
		if err != nil {
			return summaryDoc{}, err
		}
		return newSummaryDoc(run, res, false), nil
	})
	if err != nil {
		return err
	}
	return writeYAML(cfg.Output.SummaryFile, ctx.App.Writer, docs)
}

func presetsAction(ctx *cli.Context) error {
	w := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNODES\tEND HEIGHT\tRULES\tGENESIS")
	names := integration.PresetNames()
	sort.Strings(names)
	for _, name := range names {
		p, err := integration.GetPresetByName(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", p.Name, p.Nodes, p.EndHeight, p.Rules, p.Genesis)
	}
	return w.Flush()
}

func dumpConfigAction(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}
