// Package app assembles the studio bot from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/studiobot/bot/access"
	"github.com/m3rciful/studiobot/bot/controlplane"
	"github.com/m3rciful/studiobot/bot/conversation"
	"github.com/m3rciful/studiobot/bot/handlers"
	"github.com/m3rciful/studiobot/bot/route"
	"github.com/m3rciful/studiobot/bot/store"
	"github.com/m3rciful/studiobot/bot/textgen"
	"github.com/m3rciful/studiobot/bot/watermark"
	"github.com/m3rciful/studiobot/core/bootstrap"
	coreconfig "github.com/m3rciful/studiobot/core/config"
	"github.com/m3rciful/studiobot/core/logger"
	"github.com/m3rciful/studiobot/core/metrics"
	tg "github.com/m3rciful/studiobot/core/telegram"
	"github.com/m3rciful/studiobot/core/telegram/middleware"
	"github.com/m3rciful/studiobot/core/telegram/router"
	tgsender "github.com/m3rciful/studiobot/core/telegram/sender"
)

// App is the assembled bot.
type App struct {
	cfg      *coreconfig.Config
	infra    *bootstrap.Result
	Repo     *store.Repository
	Gate     *access.Gate
	Handlers *handlers.Handlers
	Registry *tg.Registry

	metrics *metrics.Server
}

// OpenRepository builds the store for the configured driver. The CLI uses it
// directly for offline commands.
func OpenRepository(cfg *coreconfig.Config, infra *bootstrap.Result) (*store.Repository, error) {
	var backend store.Backend
	switch cfg.Storage.Driver {
	case coreconfig.StoragePostgres:
		if infra == nil || infra.DB == nil {
			return nil, errors.New("app: postgres storage selected but no database connection")
		}
		backend = store.NewPostgresBackend(infra.DB)
	default:
		backend = store.NewJSONBackend(cfg.Storage.DataDir)
	}
	return store.New(backend, cfg.Access.AdminIDs)
}

// New wires every collaborator and seeds default data.
func New(ctx context.Context, cfg *coreconfig.Config, infra *bootstrap.Result) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	repo, err := OpenRepository(cfg, infra)
	if err != nil {
		return nil, err
	}

	if err := bootstrap.RunSeeders(ctx, bootstrap.SeederFunc{
		Label: "media",
		Fn: func(ctx context.Context) (int, error) {
			return repo.SeedMedia(ctx, store.DefaultMedia)
		},
	}); err != nil {
		repo.Close()
		return nil, err
	}

	stamper, err := watermark.Load(cfg.Watermark.LogoPath, watermark.Options{
		Scale:  cfg.Watermark.Scale,
		Corner: cfg.Watermark.Corner,
		Margin: cfg.Watermark.Margin,
	})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("app: %w", err)
	}
	if !stamper.Ready() {
		logger.Media.Warn("logo not found, watermarking disabled",
			slog.String("event", "media.logo"),
			slog.String("path", cfg.Watermark.LogoPath),
		)
	}

	posts := textgen.New(textgen.Options{
		APIKey:       cfg.AI.APIKey,
		BaseURL:      cfg.AI.BaseURL,
		Model:        cfg.AI.Model,
		SystemPrompt: cfg.AI.SystemPrompt,
	})
	if !posts.Enabled() {
		logger.AI.Warn("AI_API_KEY not set, post generation disabled", slog.String("event", "ai.config"))
	}

	gate := access.NewGate(repo, cfg.Access.AdminIDs)
	h, err := handlers.New(handlers.Deps{
		Store:     repo,
		Machine:   conversation.NewMachine(),
		Posts:     posts,
		Stamper:   stamper,
		Agent:     controlplane.New(cfg.ControlPlane.URL, cfg.Telegram.BotID, nil),
		IsAdmin:   gate.IsAdmin,
		MaxPhotos: cfg.Watermark.MaxPhotos,
		Workers:   cfg.Watermark.Workers,
	})
	if err != nil {
		repo.Close()
		return nil, err
	}

	reg, err := BuildRegistry(h)
	if err != nil {
		h.Close()
		repo.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		infra:    infra,
		Repo:     repo,
		Gate:     gate,
		Handlers: h,
		Registry: reg,
	}, nil
}

// BuildRegistry registers every command and callback from the route tables.
func BuildRegistry(h *handlers.Handlers) (*tg.Registry, error) {
	reg := tg.NewRegistry()
	for _, spec := range route.Commands {
		if err := reg.RegisterCommand(spec.Name, tg.Command{
			Handler:     h.Command(spec.Action),
			Description: spec.Description,
			AdminOnly:   spec.AdminOnly,
			Hidden:      spec.Hidden,
		}); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	for _, spec := range route.Callbacks {
		if err := reg.RegisterCallback(spec.Key, tg.Callback{
			Handler:   h.Callback(spec.Action),
			AdminOnly: spec.AdminOnly,
		}); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	reg.SetFallbacks(h)
	return reg, nil
}

// Routes binds commands, callbacks, free text and photos.
func (a *App) Routes() []tg.Route {
	admin := middleware.AdminOptions{IsAdmin: a.Gate.IsAdmin, OnReject: a.Handlers.AdminRejected()}
	routes := router.CommandRoutes(a.Registry, router.CommandRouteOptions{Admin: admin})
	routes = append(routes, router.CallbackRoute(a.Registry, router.CallbackOptions{Admin: admin}))
	routes = append(routes, router.TextRoutes(a.Handlers, a.Registry, router.TextOptions{
		Photo: a.Handlers.Photo,
	})...)
	return routes
}

// Middlewares returns the global chain with the access gate innermost.
func (a *App) Middlewares() []tg.Middleware {
	return tg.DefaultMiddlewares(a.cfg, a.Handlers.RateLimited(),
		tg.Middleware{Name: "access", Use: a.Gate.Middleware},
	)
}

// TelegramRunOptions satisfies cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:   a.cfg,
		Registry: a.Registry,
		// one worker keeps replies in the order handlers produced them
		DispatcherOptions: tgsender.Options{Workers: 1, MaxRetries: 2},
		Middlewares:       a.Middlewares(),
		Routes:            a.Routes(),
		OnStart: func(context.Context, tg.Runtime) error {
			return a.startMetrics()
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			a.Handlers.Close()
			return a.metrics.Shutdown(ctx)
		},
	}, nil
}

// startMetrics serves /metrics when metrics.listen is configured.
func (a *App) startMetrics() error {
	addr := a.cfg.Metrics.Listen
	if addr == "" {
		return nil
	}
	srv, err := metrics.Start(addr, metrics.Default)
	if err != nil {
		return fmt.Errorf("app: metrics listener: %w", err)
	}
	a.metrics = srv
	return nil
}

// Close releases the store and infrastructure.
func (a *App) Close() error {
	a.Handlers.Close()
	a.Repo.Close()
	return a.infra.Close()
}
