package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ripple-mq/echor/pkg/utils/config"
	"github.com/ripple-mq/echor/pkg/utils/env"
	"github.com/ripple-mq/echor/pkg/utils/pen"
	"github.com/ripple-mq/echor/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	serveCmd := &cobra.Command{
		Use:   "serve <host:port>",
		Short: "Start the echo server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, configPath, args[0])
		},
	}

	def := config.Default()
	f := serveCmd.Flags()
	f.StringVarP(&configPath, "config", "c", env.Get("config"), "TOML config file (default ./config.toml when present)")
	f.Int("buffer-size", def.Server.Buffer_size, "per-connection read buffer in bytes")
	f.Int("max-connections", def.Server.Max_connections, "live connection limit, 0 for unbounded")
	f.String("admission-policy", def.Server.Admission_policy, "what to do at the limit: reject or queue")
	f.Duration("grace-period", def.Server.Grace_period, "time live connections get to finish on shutdown")
	f.Duration("idle-timeout", def.Server.Idle_timeout, "disconnect peers silent for this long, 0 disables")
	f.String("log-level", def.Log.Level, "debug, info, warn or error")
	f.String("admin-addr", def.Admin.Addr, "gRPC health endpoint address, empty disables")
	f.String("pprof-addr", def.Debug.Pprof_addr, "pprof HTTP address, empty disables")
	return serveCmd
}

func serve(cmd *cobra.Command, configPath string, addr string) error {
	cfg, err := config.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		log.Error("invalid configuration", "err", err)
		return exitWith(exitStartup, err)
	}
	if err := pen.InitLog(cfg.Log.Level); err != nil {
		return exitWith(exitStartup, err)
	}

	s, err := server.NewServer(addr, cfg)
	if err != nil {
		log.Error("cannot start", "addr", addr, "err", err)
		return exitWith(exitStartup, err)
	}
	if err := s.Listen(); err != nil {
		log.Error("cannot start", "addr", addr, "err", err)
		return exitWith(exitStartup, err)
	}
	printBanner(cmd.ErrOrStderr())
	log.Info("echor ready", "addr", s.Addr(), "id", s.ID)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested", "grace", cfg.Server.Grace_period)
	case <-s.Done():
		log.Error("listener failed, draining connections", "err", s.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Grace_period)
	defer cancel()
	start := time.Now()
	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("shutdown", "err", err)
	}
	log.Info("echor stopped", "took", time.Since(start).Round(time.Millisecond))

	if err := s.Err(); err != nil {
		return exitWith(exitListener, err)
	}
	return nil
}
