package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/zeusync/trackpilot/internal/config"
	"github.com/zeusync/trackpilot/internal/injector"
)

const usage = `usage:
  trainer train  [-config file] [-generations n] [-genome out.yaml]
  trainer replay [-config file] <run-id>
  trainer best   [-config file] [-limit n]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "trainer:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	generations := fs.Int("generations", 0, "generations to train, overriding the configuration")
	genomeOut := fs.String("genome", "", "write the best genome to this YAML file")
	limit := fs.Int("limit", 10, "number of runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *generations > 0 {
		cfg.Training.Generations = *generations
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	switch cmd {
	case "train":
		_, err := train(ctx, app, *genomeOut)
		return err
	case "replay":
		if fs.NArg() != 1 {
			return fmt.Errorf("replay needs exactly one run id\n%s", usage)
		}
		id, err := uuid.Parse(fs.Arg(0))
		if err != nil {
			return fmt.Errorf("run id: %w", err)
		}
		res, err := replay(ctx, app, id)
		if err != nil {
			return err
		}
		fmt.Printf("run %s: collision=%t ticks=%d final=%s score=%g fingerprint=%x\n",
			id, res.Outcome.Collision, res.Outcome.Ticks, res.Final, res.Score, res.Fingerprint)
		return nil
	case "best":
		runs, err := app.Store.BestRuns(ctx, *limit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("%s  generation=%d  score=%g  collision=%t  ticks=%d\n",
				r.ID, r.Generation, r.Score, r.Outcome.Collision, r.Outcome.Ticks)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}
