// Command coverage-audit checks the question bank against the coverage and
// citation policies. It prints a text report, writes the JSON artifact and
// exits non-zero when the bank is not compliant.
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
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("coverage-audit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	strict := fs.Bool("strict", false, "treat placeholder citations, authority mismatches, boilerplate and validation issues as failures")
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

	report, err := a.Audit(ctx, *strict)
	if err != nil {
		slog.Error("audit failed", "error", err)
		return 1
	}
	if err := a.WriteReports(stdout, report); err != nil {
		slog.Error("failed to write reports", "error", err)
		return 1
	}

	if err := report.Err(); err != nil {
		slog.Error("coverage audit failed", "error", err)
		return 1
	}
	return 0
}
