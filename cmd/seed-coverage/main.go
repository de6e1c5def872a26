// Command seed-coverage generates questions for every criterion below the
// coverage minimum, saves them to their partitions and re-runs the audit.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/p-n-ai/psr-academy/internal/app"
	"github.com/p-n-ai/psr-academy/internal/platform/config"
	"github.com/p-n-ai/psr-academy/internal/platform/logging"
	"github.com/p-n-ai/psr-academy/internal/seeding"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("seed-coverage", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logging.Setup(stderr, cfg.Log)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		return 1
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to load content", "error", err)
		return 1
	}
	defer a.Close()

	routes, err := seeding.LoadPartitionMap(cfg.Content.PartitionsPath)
	if err != nil {
		slog.Error("failed to load partition map", "error", err)
		return 1
	}

	res, runErr := seeding.New(a.Store, routes, a.AuditOptions(false)).Run(ctx, a.Standards.Criteria())
	if res != nil {
		slog.Info("seeding finished",
			"criteria_seeded", len(res.Seeded),
			"generated", res.Generated(),
			"partitions", res.Partitions,
			"gaps", len(res.Gaps),
		)
		if res.Report != nil {
			if err := a.WriteReports(stdout, res.Report); err != nil {
				slog.Error("failed to write reports", "error", err)
				return 1
			}
		}
	}
	if runErr != nil {
		slog.Error("seeding did not reach compliance", "error", runErr)
		return 1
	}
	return 0
}
