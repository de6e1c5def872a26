// Package app wires configuration into the content sources shared by the
// command-line tools and the query server.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/p-n-ai/psr-academy/internal/audit"
	"github.com/p-n-ai/psr-academy/internal/curriculum"
	"github.com/p-n-ai/psr-academy/internal/platform/config"
	"github.com/p-n-ai/psr-academy/internal/platform/database"
	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

// App holds the loaded standards, topic catalogue and question store.
type App struct {
	Config    *config.Config
	Standards *standards.Document
	Topics    *curriculum.Loader
	Store     *questionbank.FallbackStore
	DB        *database.DB // nil when no database is configured or reachable
}

// Open loads static content and opens the question store. An unreachable
// database is logged and the file partitions are used instead.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	doc, err := standards.Load(cfg.Content.StandardsPath)
	if err != nil {
		return nil, err
	}

	topics, err := curriculum.NewLoader(cfg.Content.TopicsDir)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Standards: doc, Topics: topics}

	var primary questionbank.Store
	if cfg.HasDatabase() {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			slog.Warn("database unavailable, using file partitions", "error", err)
		} else {
			pg, err := questionbank.NewPostgresStore(db.Pool, cfg.Database.QuestionsTable)
			if err != nil {
				db.Close()
				return nil, err
			}
			a.DB = db
			primary = pg
		}
	}

	var secondary questionbank.Store
	if cfg.Content.QuestionsDir != "" {
		secondary = questionbank.NewFileStore(cfg.Content.QuestionsDir)
	}
	a.Store = questionbank.NewFallbackStore(primary, secondary)

	slog.Info("content loaded",
		"criteria", len(doc.Criteria()),
		"topics", topics.Len(),
		"database", a.DB != nil,
	)
	return a, nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	a.DB.Close()
}

// AuditOptions returns the production policy. strict is OR-ed with
// PSR_AUDIT_STRICT. Topic resolution is skipped when no topics are loaded.
func (a *App) AuditOptions(strict bool) audit.Options {
	opts := audit.DefaultOptions()
	opts.Strict = strict || a.Config.Audit.Strict
	if a.Topics.Len() > 0 {
		opts.Topics = a.Topics
	}
	return opts
}

// Audit loads the bank and audits it.
func (a *App) Audit(ctx context.Context, strict bool) (*audit.Report, error) {
	bank, err := a.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	return audit.Run(a.Standards.Criteria(), bank, a.AuditOptions(strict)), nil
}

// WriteReports prints the text report to w and writes the JSON artifact and,
// when configured, the XLSX workbook.
func (a *App) WriteReports(w io.Writer, r *audit.Report) error {
	if err := audit.WriteText(w, r, a.Config.Audit.DisplayCap); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	if err := audit.WriteJSON(a.Config.Audit.ReportPath, r); err != nil {
		return err
	}
	slog.Info("audit report written", "path", a.Config.Audit.ReportPath)
	if a.Config.Audit.XLSXPath != "" {
		if err := audit.WriteXLSX(a.Config.Audit.XLSXPath, r); err != nil {
			return err
		}
		slog.Info("audit workbook written", "path", a.Config.Audit.XLSXPath)
	}
	return nil
}
