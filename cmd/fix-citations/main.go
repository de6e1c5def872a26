// Command fix-citations tops up every question below the citation minimum,
// saves the changed partitions and re-runs the audit.
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
	"github.com/p-n-ai/psr-academy/internal/audit"
	"github.com/p-n-ai/psr-academy/internal/platform/config"
	"github.com/p-n-ai/psr-academy/internal/platform/logging"
	"github.com/p-n-ai/psr-academy/internal/repair"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fix-citations", flag.ContinueOnError)
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

	r := repair.New(a.Standards.Criteria(), a.Topics, audit.MinCitationsPerQuestion)
	res, err := r.Apply(ctx, a.Store)
	if err != nil {
		slog.Error("citation repair failed", "error", err)
		return 1
	}
	for _, c := range res.Changes {
		slog.Debug("repaired question", "question", c.QuestionID, "partition", c.Partition, "added", len(c.Added))
	}

	report, err := a.Audit(ctx, false)
	if err != nil {
		slog.Error("re-audit failed", "error", err)
		return 1
	}
	if err := a.WriteReports(stdout, report); err != nil {
		slog.Error("failed to write reports", "error", err)
		return 1
	}
	if err := report.Err(); err != nil {
		slog.Error("bank still not compliant after repair", "error", err)
		return 1
	}
	return 0
}
