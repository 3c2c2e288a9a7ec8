package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kasuganosora/monbattle/cache"
	"github.com/kasuganosora/monbattle/config"
	"github.com/kasuganosora/monbattle/game/arena"
	"github.com/kasuganosora/monbattle/resource"
)

type simulateOptions struct {
	Player   []string
	Opponent []string
	Level    int
	Seed     int64
	MaxTurns int
	Wild     bool
	DataPath string
}

var simOpts simulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an AI vs AI battle and print the log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if simOpts.DataPath == "" {
			simOpts.DataPath = cfg.Catalog.DataPath
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer logger.Sync()
		return runSimulate(cmd.Context(), cmd.OutOrStdout(), cfg, simOpts, logger)
	},
}

func init() {
	f := simulateCmd.Flags()
	f.StringSliceVar(&simOpts.Player, "player", []string{"emberfox"}, "player team species keys")
	f.StringSliceVar(&simOpts.Opponent, "opponent", []string{"tidepup"}, "opponent team species keys")
	f.IntVar(&simOpts.Level, "level", 0, "level of every creature (0 = arena.default_level)")
	f.Int64Var(&simOpts.Seed, "seed", 0, "random seed (0 = from clock)")
	f.IntVar(&simOpts.MaxTurns, "turns", 200, "stop after this many turns")
	f.BoolVar(&simOpts.Wild, "wild", false, "wild battle (escape allowed)")
	f.StringVar(&simOpts.DataPath, "data", "", "catalog directory (default catalog.data_path)")
}

// runSimulate plays a duel with the AI on both sides using an in-process
// cache, then writes the log and the outcome to out.
func runSimulate(ctx context.Context, out io.Writer, cfg *config.Config, opts simulateOptions, logger *zap.Logger) error {
	cat := resource.NewLoader(opts.DataPath)
	if err := cat.Load(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	local := cache.Config{LocalGCInterval: cfg.Cache.LocalGCInterval, LocalPubSubBuf: cfg.Cache.LocalPubSubBuf}
	store, err := cache.NewStore(local)
	if err != nil {
		return err
	}
	defer store.Close()
	pubsub, err := cache.NewPubSub(local)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	m := arena.NewManager(arena.Options{
		Catalog: cat,
		Store:   store,
		PubSub:  pubsub,
		Rules:   &cfg.Battle,
		Config:  cfg.Arena,
		Logger:  logger,
	})
	snap, err := m.Create(ctx, arena.CreateRequest{
		Player:   arena.TeamSpec{Species: opts.Player, Level: opts.Level},
		Opponent: arena.TeamSpec{Species: opts.Opponent, Level: opts.Level},
		Duel:     true,
		Wild:     opts.Wild,
		Seed:     opts.Seed,
	})
	if err != nil {
		return err
	}
	end, err := m.Autoplay(ctx, snap.ID, opts.MaxTurns)
	if err != nil {
		return err
	}
	lines, err := m.Log(snap.ID, 0)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Fprintf(out, "[%3d] %s\n", l.Turn, l.Text)
	}
	if end.State != "ended" {
		fmt.Fprintf(out, "no result after %d turns\n", end.Turn)
		return nil
	}
	fmt.Fprintf(out, "result: %s after %d turns\n", end.Result, end.Turn)
	return nil
}
