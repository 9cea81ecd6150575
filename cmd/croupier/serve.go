package main

import (
	"fmt"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/croupier/cmd/croupier/shared"
	"github.com/lox/croupier/internal/game"
	"github.com/lox/croupier/internal/ledger"
	"github.com/lox/croupier/internal/randutil"
	"github.com/lox/croupier/internal/server"
)

// ServeCmd runs the bot: chat transport, ledger, session manager and the
// dice command, wired together and torn down on interrupt.
type ServeCmd struct {
	Config string `short:"c" help:"Path to HCL config file" default:"croupier.hcl"`
	Addr   string `help:"Override the configured listen address (host:port)"`
	Seed   int64  `help:"RNG seed for reproducible runs (0 seeds from time)"`
	Debug  bool   `short:"d" help:"Enable debug logging"`
}

func (cmd *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(cmd.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel, cmd.Debug)

	addr := cmd.Addr
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	}

	seed := cmd.Seed
	if seed == 0 {
		seed = cfg.Game.Seed
	}
	rng := randutil.NewFromTime()
	if seed != 0 {
		logger.Info("using fixed RNG seed", "seed", seed)
		rng = randutil.New(seed)
	}

	points := ledger.NewMemory(cfg.Game.StartingBalance, logger)
	srv := server.New(addr, points, logger)

	sessions := game.NewSessionManager(cfg.SessionConfig(), points, srv, quartz.NewReal(), rng, logger)
	dice := game.NewDice(cfg.DiceConfig(), points, srv, randutil.New(rng.Int64()), logger)
	srv.SetDispatcher(server.NewDispatcher(sessions, dice, points, srv, logger))

	ctx := shared.SetupSignalHandler(logger)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		sessions.Shutdown()
		return srv.Stop()
	})

	return g.Wait()
}
