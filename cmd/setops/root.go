package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/claude/setops/internal/analysis"
	"github.com/claude/setops/internal/config"
	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/render"
	"github.com/claude/setops/internal/state"
	"github.com/claude/setops/internal/storage"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

// NewRootCmd builds the setops command tree.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var g globalFlags

	c := &cobra.Command{
		Use:           "setops",
		Short:         "Route-setting schedules, maps and productivity analysis for climbing gyms",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	c.PersistentFlags().StringVar(&g.configPath, "config", "", "path to config file (defaults apply when empty)")
	c.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	c.AddCommand(newServeCmd(&g), newImportCmd(&g), newMCPCmd(&g), newPushCmd(&g))

	c.SetOut(stdout)
	c.SetErr(stderr)
	return c
}

// logger writes to w at the configured level.
func (g *globalFlags) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(g.logLevel))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", g.logLevel)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func (g *globalFlags) config() (*config.Config, error) {
	if g.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(g.configPath)
}

// env is everything a command needs once config is resolved.
type env struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *gyms.Registry
	store    storage.Store
	app      *state.App
	renderer *render.Renderer
}

func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Warn("closing store", "error", err)
		}
	}
}

// setup loads config, opens the store and restores persisted state. With
// withStore false the app runs in memory only.
func (g *globalFlags) setup(ctx context.Context, logOut io.Writer, withStore bool) (*env, error) {
	log, err := g.logger(logOut)
	if err != nil {
		return nil, err
	}
	cfg, err := g.config()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	registry := gyms.Default()
	if cfg.GymsFile != "" {
		if registry, err = gyms.LoadFile(cfg.GymsFile); err != nil {
			return nil, err
		}
		log.Info("gym registry loaded", "file", cfg.GymsFile, "gyms", len(registry.Codes()))
	}

	e := &env{cfg: cfg, log: log, registry: registry}
	if withStore {
		e.store, err = storage.Open(ctx, storage.Options{
			Driver:        cfg.Database.Driver,
			Path:          cfg.Database.Path,
			DSN:           cfg.Database.DSN(),
			RedisAddr:     cfg.Database.Redis.Addr,
			RedisPassword: cfg.Database.Redis.Password,
			RedisDB:       cfg.Database.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
		}
		log.Info("store opened", "driver", cfg.Database.Driver)
	}

	e.app = state.New(registry, e.store, log)
	if e.store != nil {
		if err := e.app.Load(ctx); err != nil {
			e.Close()
			return nil, fmt.Errorf("loading state: %w", err)
		}
	}
	applyThresholds(e.app, cfg.Analysis)

	var bg *render.Backgrounds
	if cfg.Render.BackgroundDir != "" {
		bg = &render.Backgrounds{FS: os.DirFS(cfg.Render.BackgroundDir), Timeout: cfg.Render.LoadTimeout}
	}
	e.renderer = render.New(registry, bg, log)
	return e, nil
}

// applyThresholds seeds the DEFAULT baseline from config unless a stored
// baseline already customized it.
func applyThresholds(app *state.App, a config.AnalysisConfig) {
	cur, ok := app.Baselines()[analysis.DefaultBaselineKey]
	if ok && cur != analysis.DefaultBaseline() {
		return
	}
	b := analysis.DefaultBaseline()
	b.MaxBouldersPerSetter = a.MaxBouldersPerSetter
	b.MaxRoutesPerSetter = a.MaxRoutesPerSetter
	app.SetBaseline(analysis.DefaultBaselineKey, b)
}
