// Package bootstrap wires config into a ready analysis service. Both the
// HTTP server and the CLI start from here.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/bryanwahyu/repo-audit/internal/application"
	appanalysis "github.com/bryanwahyu/repo-audit/internal/application/analysis"
	"github.com/bryanwahyu/repo-audit/internal/config"
	domai "github.com/bryanwahyu/repo-audit/internal/domain/ai"
	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
	"github.com/bryanwahyu/repo-audit/internal/infra/ai/gemini"
	"github.com/bryanwahyu/repo-audit/internal/infra/ai/openai"
	"github.com/bryanwahyu/repo-audit/internal/infra/classifier"
	mysqlp "github.com/bryanwahyu/repo-audit/internal/infra/db/mysql"
	"github.com/bryanwahyu/repo-audit/internal/infra/db/postgres"
	"github.com/bryanwahyu/repo-audit/internal/infra/executor/local"
	"github.com/bryanwahyu/repo-audit/internal/infra/git"
	"github.com/bryanwahyu/repo-audit/internal/infra/storage"
	"github.com/bryanwahyu/repo-audit/internal/middleware"
)

// App is the wired service plus the resources it holds.
type App struct {
	Service  *appanalysis.Service
	Metrics  *middleware.Metrics
	Checkers map[string]middleware.HealthChecker

	db *sql.DB
}

// Close releases the database handle, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Build constructs every collaborator named by cfg. withHistory=false skips
// the database even when one is configured (the CLI runs that way).
func Build(ctx context.Context, cfg *config.Config, withHistory bool) (*App, error) {
	app := &App{
		Metrics:  middleware.NewMetrics(),
		Checkers: map[string]middleware.HealthChecker{},
	}

	runner := local.NewRunner(cfg.Tools.Timeout)

	client, err := NewAIClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	artifacts, err := NewArtifactStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo domain.Repository
	if withHistory && cfg.Database.Driver != "" {
		db, r, err := openRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.db = db
		repo = r
		app.Checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	app.Service = &appanalysis.Service{
		Fetcher:    git.NewFetcher(runner, cfg.Tools.Git, cfg.Tools.CloneTimeout),
		Classifier: classifier.New(),
		Dispatcher: &appanalysis.Dispatcher{
			Runner: runner,
			Tools: appanalysis.Toolchain{
				Pylint:  cfg.Tools.Pylint,
				Bandit:  cfg.Tools.Bandit,
				Semgrep: cfg.Tools.Semgrep,
				NPM:     cfg.Tools.NPM,
				ESLint:  cfg.Tools.ESLint,
				TSC:     cfg.Tools.TSC,
			},
			Timeout:     cfg.Tools.Timeout,
			Concurrency: cfg.Tools.Concurrency,
			OnResult:    app.Metrics.ObserveTool,
		},
		Summarizer:   &appanalysis.Summarizer{Client: client, Timeout: cfg.AI.Timeout},
		Artifacts:    artifacts,
		Repo:         repo,
		Clock:        application.SystemClock{},
		WorkspaceDir: cfg.Tools.WorkspaceDir,
		OnRun:        app.Metrics.ObserveRun,
	}
	return app, nil
}

// NewAIClient returns the configured summarization client, or nil when no
// API key is set. A nil client makes every summary a fallback text.
func NewAIClient(ctx context.Context, cfg *config.Config) (domai.Client, error) {
	if cfg.AI.APIKey == "" {
		klog.Warningf("no API key for provider %s; summaries are disabled", cfg.AI.Provider)
		return nil, nil
	}
	switch strings.ToLower(cfg.AI.Provider) {
	case "openai":
		return openai.NewClientWithBaseURL(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL), nil
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
}

// NewArtifactStore returns the local or MinIO artifact store.
func NewArtifactStore(ctx context.Context, cfg *config.Config) (domain.ArtifactStore, error) {
	switch cfg.Artifacts.Driver {
	case "minio":
		m := cfg.Artifacts.Minio
		return storage.New(ctx, m.Endpoint, m.Region, m.BucketName, m.AccessKey, m.SecretKey, m.UseSSL)
	case "local":
		return storage.NewLocal(cfg.Artifacts.Dir)
	}
	return nil, fmt.Errorf("unknown artifacts driver %q", cfg.Artifacts.Driver)
}

func openRepository(ctx context.Context, cfg *config.Config) (*sql.DB, domain.Repository, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		repo := mysqlp.NewRunRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("mysql schema: %w", err)
		}
		return db, repo, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		repo := postgres.NewRunRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		return db, repo, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
