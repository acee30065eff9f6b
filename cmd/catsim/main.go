// Command catsim runs the cat population simulation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/talgya/catsim/internal/api"
	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/engine"
	"github.com/talgya/catsim/internal/persistence"
	"github.com/talgya/catsim/internal/render"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("catsim failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cfg)

	// The viewer owns the terminal; console logs would draw over it.
	if cfg.Render.Enabled {
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			slog.Warn("stdout is not a terminal, viewer disabled")
			cfg.Render.Enabled = false
		} else if cfg.Log.Method == "console" {
			cfg.Log.Method = "file"
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logFile, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	// ── Persistence ───────────────────────────────────────────────────
	runID := uuid.NewString()
	store, err := persistence.Open(cfg.Persist)
	if err != nil {
		return err
	}
	defer store.Close()
	sqlStore, _ := store.(*persistence.SQLStore)

	// ── Simulation ────────────────────────────────────────────────────
	var sim *engine.Simulation
	switch {
	case opts.resumeRun != "":
		if sqlStore == nil {
			return fmt.Errorf("%w: -resume-run needs persist.driver sqlite or postgres", config.ErrInvalidConfig)
		}
		st, err := sqlStore.LatestState(opts.resumeRun)
		if err != nil {
			return err
		}
		if sim, err = engine.Resume(st, cfg.Log.Forces); err != nil {
			return err
		}
		slog.Info("resuming run", "from", opts.resumeRun, "step", sim.Step)
	case cfg.Run.StateFile != "":
		st, err := persistence.LoadState(cfg.Run.StateFile)
		if err != nil {
			return err
		}
		if sim, err = engine.Resume(st, cfg.Log.Forces); err != nil {
			return err
		}
		slog.Info("resuming run", "step", sim.Step, "sim_time", engine.SimTime(sim.Step, sim.Params.StartHour))
	default:
		if sim, err = engine.Setup(cfg); err != nil {
			return err
		}
	}

	if err := store.BeginRun(runID, sim); err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	if sqlStore != nil && opts.resumeRun != "" {
		if err := sqlStore.SaveMeta("resumed_from", opts.resumeRun); err != nil {
			slog.Warn("meta save failed", "error", err)
		}
	}

	interval, err := cfg.Run.Interval()
	if err != nil {
		return fmt.Errorf("%w: run.interval: %v", config.ErrInvalidConfig, err)
	}
	eng := engine.NewEngine(sim)
	eng.Interval = interval
	eng.OnTick = func(sim *engine.Simulation, r engine.TickReport) {
		slog.Info("tick",
			"step", r.Step,
			"sim_time", engine.SimTime(sim.Step, sim.Params.StartHour),
			"temperature", fmt.Sprintf("%.1f", r.Temperature),
			"population", r.Population,
			"births", r.Births,
			"deaths", r.Deaths,
			"conceptions", r.Conceptions,
			"attacks", r.Attacks,
		)
		if sim.Step%cfg.Persist.Every == 0 || sim.Finished() {
			if err := store.SaveTick(sim); err != nil {
				slog.Error("tick save failed", "step", sim.Step, "error", err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.Enabled {
		adminKey := cfg.API.AdminKey
		if env := os.Getenv("CATSIM_ADMIN_KEY"); env != "" {
			adminKey = env
		}
		if adminKey == "" {
			slog.Warn("no admin key set, pause/resume endpoints disabled")
		}
		server := &api.Server{
			Eng:      eng,
			DB:       sqlStore,
			RunID:    runID,
			Port:     cfg.API.Port,
			AdminKey: adminKey,
		}
		server.Start(ctx)
	}

	slog.Info("simulation ready",
		"run", runID,
		"seed", sim.Params.Seed,
		"population", sim.Population,
		"terrain", fmt.Sprintf("%dx%d", sim.Terrain.Width, sim.Terrain.Height),
		"steps", sim.Params.Steps,
	)

	// ── Start ─────────────────────────────────────────────────────────
	if cfg.Render.Enabled {
		if err := runWithViewer(ctx, eng); err != nil {
			return err
		}
	} else if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if cfg.API.Enabled && ctx.Err() == nil {
		fmt.Printf("Run finished. API still serving on :%d (Ctrl+C to exit)\n", cfg.API.Port)
		<-ctx.Done()
	}

	if sqlStore != nil {
		recordOutcome(sqlStore, sim)
	}
	writeReport(os.Stdout, sim)
	if opts.dump {
		fmt.Println()
		fmt.Print(sim.Terrain.String())
	}
	return nil
}

// recordOutcome stores how the run ended, for catreport.
func recordOutcome(db *persistence.SQLStore, sim *engine.Simulation) {
	outcome := "finished"
	if !sim.Finished() {
		outcome = "interrupted"
	}
	meta := map[string]string{
		"outcome":          outcome,
		"final_step":       strconv.Itoa(sim.Step),
		"final_population": strconv.Itoa(sim.Population),
	}
	for key, value := range meta {
		if err := db.SaveMeta(key, value); err != nil {
			slog.Warn("meta save failed", "key", key, "error", err)
		}
	}
}

// runWithViewer runs the engine in the background while the viewer owns the
// terminal. Quitting the viewer stops the engine.
func runWithViewer(ctx context.Context, eng *engine.Engine) error {
	screen, err := render.NewTerminalScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	viewErr := render.NewViewer(eng, screen).Run(ctx)
	eng.Stop()
	screen.Fini()

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return viewErr
}

// setupLogging installs the default slog logger for the configured method.
// It returns the log file to close, if any.
func setupLogging(cfg config.LogConfig) (io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("%w: log.level: %v", config.ErrInvalidConfig, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	var (
		handler slog.Handler
		closer  io.Closer
	)
	switch cfg.Method {
	case "none":
		handler = slog.NewTextHandler(io.Discard, opts)
	case "file":
		f, err := os.Create(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		handler = slog.NewJSONHandler(f, opts)
		closer = f
	default:
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		}
	}
	slog.SetDefault(slog.New(handler))
	return closer, nil
}
