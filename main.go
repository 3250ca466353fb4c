package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/auth"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/cache"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/config"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/gateway"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/generate"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/llm"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/logging"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/migration"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/ratelimit"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/reconcile"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting storycanvas sync engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("remote", logging.SanitizeURL(cfg.Remote.BaseURL)),
		zap.String("cache", cfg.Cache.Path))

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		logger.Fatal("open local cache", zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	session, err := auth.NewManager(store, logger)
	if err != nil {
		logger.Fatal("restore session", zap.Error(err))
	}

	limiter := ratelimit.New(ratelimit.Config{
		MaxPerWindow: cfg.RateLimit.MaxPerWindow,
		Window:       cfg.RateLimit.Window(),
		MinSpacing:   cfg.RateLimit.MinSpacing(),
		BurstWindow:  cfg.RateLimit.BurstWindow(),
		MaxRetries:   cfg.RateLimit.MaxRetries,
		BackoffBase:  cfg.RateLimit.BackoffBase(),
	}, logger)
	client := gateway.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout(), limiter, session, logger)
	session.SetRefresher(client)

	reconciler := reconcile.NewReconciler(client, store, logger)

	llmClient, err := llm.NewFromConfig(&cfg.LLM, logger)
	if err != nil {
		logger.Fatal("configure llm client", zap.Error(err))
	}
	enhancer := generate.NewEnhancer(llmClient, logger)

	facade := generate.NewFacade(store, client, reconciler, session, enhancer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if session.IsAuthenticated() {
		if err := session.EnsureFresh(ctx); err != nil {
			logger.Warn("session not refreshable, running offline", zap.Error(err))
		}
	}

	if session.IsAuthenticated() {
		coordinator := migration.NewCoordinator(store, client, session, logger)
		report, err := coordinator.MigrateAll(ctx)
		if err != nil {
			logger.Warn("guest migration skipped", zap.Error(err))
		} else if report.Failed > 0 {
			logger.Warn("some guest projects not migrated",
				zap.Int("migrated", report.Migrated),
				zap.Int("failed", report.Failed))
		}
	}

	syncAll(ctx, store, reconciler, facade, session.IsAuthenticated(), logger)
}

// syncAll walks every locally known project: guest projects get their
// scenario set filled in offline when empty, authenticated projects are
// reconciled family by family against the remote store. Failures are
// logged and skipped.
func syncAll(ctx context.Context, store *cache.Store, reconciler reconcile.Reconciler, facade generate.Facade, authenticated bool, logger *zap.Logger) {
	projects, err := store.ListProjects()
	if err != nil {
		logger.Error("list local projects", zap.Error(err))
		return
	}

	start := time.Now()
	for _, p := range projects {
		if p.IsGuest || !authenticated {
			n, err := store.CountScenarios(p.ID)
			if err != nil {
				logger.Warn("count scenarios", zap.String("project_id", p.ID), zap.Error(err))
				continue
			}
			if n == 0 {
				if _, err := facade.GetOrGenerate(ctx, p.ID); err != nil {
					logger.Warn("offline generation failed",
						zap.String("project_id", p.ID),
						zap.String("cause", logging.SanitizeError(err)))
				}
			}
			continue
		}
		if report, err := reconciler.SyncStories(ctx, p.ID); err != nil {
			logger.Warn("story sync failed",
				zap.String("project_id", p.ID),
				zap.String("cause", logging.SanitizeError(err)))
		} else if report.Failed > 0 {
			logger.Warn("story sync partial",
				zap.String("project_id", p.ID),
				zap.Int("failed", report.Failed))
		}

		if report, err := reconciler.SyncScenarios(ctx, p.ID); err != nil {
			logger.Warn("scenario sync failed",
				zap.String("project_id", p.ID),
				zap.String("cause", logging.SanitizeError(err)))
		} else if report.Failed > 0 {
			logger.Warn("scenario sync partial",
				zap.String("project_id", p.ID),
				zap.Int("failed", report.Failed))
		}
	}

	logger.Info("sync pass finished",
		zap.Int("projects", len(projects)),
		zap.Duration("elapsed", time.Since(start)))
}
