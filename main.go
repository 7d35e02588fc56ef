package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orbs/config"
	"github.com/pthm-cable/orbs/events"
	"github.com/pthm-cable/orbs/game"
	"github.com/pthm-cable/orbs/neural"
	"github.com/pthm-cable/orbs/storage"
	"github.com/pthm-cable/orbs/ui"
	"github.com/pthm-cable/orbs/vizserver"
)

func main() {
	if err := run(); err != nil {
		slog.Error("orbs failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Config file, YAML or INI (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Log per-generation stats via slog")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for milestone snapshots")
	loadSnapshot := flag.String("load-snapshot", "", "Resume from a snapshot file")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (time-based when not set)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	maxGenerations := flag.Int("max-generations", 0, "Stop after N generations (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per frame in graphical mode")
	vizAddr := flag.String("viz-addr", "", "Serve state over HTTP on this address (overrides viz.addr)")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("parsing -log-level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	rngSeed := resolveSeed(*seed, flagSet("seed"), time.Now)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	act, err := neural.ParseActivation(cfg.Brain.Activation)
	if err != nil {
		return err
	}
	storePath := cfg.Persistence.Path
	if *outputDir != "" && !filepath.IsAbs(storePath) {
		storePath = filepath.Join(*outputDir, storePath)
	}
	store, err := storage.NewStore(ctx, cfg.Persistence.Backend, storePath, act)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				slog.Error("failed to close store", "error", err)
			}
		}()
	}

	bus := events.NewBus(events.DefaultSpawnQueue)
	opts := game.Options{
		Config:         cfg,
		Seed:           rngSeed,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
		LogStats:       *logStats,
		OutputDir:      *outputDir,
		SnapshotDir:    *snapshotDir,
		LoadSnapshot:   *loadSnapshot,
		Store:          store,
		Bus:            bus,
	}

	addr := cfg.Viz.Addr
	if *vizAddr != "" {
		addr = *vizAddr
	}
	var viz *vizserver.VizService
	if addr != "" {
		viz = vizserver.NewVizService(addr, bus, os.Stderr)
		opts.OnFrame = viz.PublishFrame
	}

	// Graphical mode needs the window before anything touches raylib
	if !*headless {
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Orbs")
		defer rl.CloseWindow()
		rl.SetWindowState(rl.FlagWindowResizable)
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	}

	g, err := game.NewGame(opts)
	if err != nil {
		return fmt.Errorf("creating game: %w", err)
	}
	defer g.Unload()

	if viz != nil {
		bus.GenerationComplete.Subscribe(func(e events.GenerationComplete) {
			viz.RecordGeneration(e, g.HallOfFame())
		})
		go func() {
			if err := viz.ListenAndServe(ctx); err != nil {
				slog.Error("vizserver stopped", "addr", addr, "error", err)
			}
		}()
	}

	start := time.Now()
	defer func() { g.LogSummary(time.Since(start)) }()

	if *headless {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"orbs", g.Population(),
			"max_ticks", *maxTicks,
			"max_generations", *maxGenerations,
		)
		err := g.RunHeadlessContext(ctx, int32(*maxTicks), *maxGenerations)
		if errors.Is(err, context.Canceled) {
			slog.Info("interrupted", "tick", g.Tick(), "generation", g.Generation())
			return nil
		}
		return err
	}

	app := ui.NewApp(g, "Orbs")
	defer app.Close()
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		app.Update()
		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
		if *maxGenerations > 0 && g.Generation() >= *maxGenerations {
			break
		}
	}
	return nil
}

// flagSet reports whether name was given on the command line.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// resolveSeed returns seed when it was given explicitly, zero included,
// and a time-based seed otherwise.
func resolveSeed(seed int64, explicit bool, now func() time.Time) int64 {
	if explicit {
		return seed
	}
	return now().UnixNano()
}
