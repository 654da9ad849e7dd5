package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/poslink/internal/config"
	"github.com/danmuck/poslink/internal/host"
	"github.com/danmuck/poslink/internal/link"
	"github.com/danmuck/poslink/internal/observability"
	"github.com/danmuck/poslink/internal/server"
	"github.com/danmuck/poslink/internal/status"
	"github.com/rs/zerolog"
)

type printLog struct {
	logger zerolog.Logger
}

func (p printLog) PrintDone(id, file string) {
	p.logger.Info().Str("link", id).Str("file", file).Msg("print done")
}

func (p printLog) PrintFailed(id, file, reason string) {
	p.logger.Warn().Str("link", id).Str("file", file).Str("reason", reason).Msg("print failed")
}

func main() {
	configPath := flag.String("config", "poslink.toml", "suite roster path")
	tuningPath := flag.String("tuning", "", "optional link tuning overlay")
	noAdmin := flag.Bool("no-admin", false, "disable the admin HTTP server")
	flag.Parse()

	if err := run(*configPath, *tuningPath, !*noAdmin); err != nil {
		fmt.Fprintf(os.Stderr, "poshost: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, tuningPath string, admin bool) error {
	logger := observability.InitLogger("poshost")

	cfg, err := config.LoadSuiteConfig(configPath)
	if err != nil {
		return err
	}
	policy, err := loadPolicy(tuningPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := link.NewRunID()
	var notifiers []link.Notifier
	var sinks []link.StateSink

	if cfg.Status.NATSURL != "" {
		nc, err := status.ConnectNATS(cfg.Status.NATSURL, cfg.Host.Name)
		if err != nil {
			logger.Warn().Err(err).Str("url", cfg.Status.NATSURL).Msg("status bus unavailable")
		} else {
			defer nc.Close()
			notifiers = append(notifiers, status.NewNATSNotifier(nc, cfg.Host.Name))
		}
	}
	if cfg.Status.RedisAddr != "" {
		client := status.NewRedisClient(cfg.Status.RedisAddr)
		defer client.Close()
		shadow := status.NewRedisShadow(client, time.Duration(cfg.Status.RedisTTLSec)*time.Second)
		shadowCtx, cancelShadow := context.WithCancel(context.Background())
		shadow.Start(shadowCtx)
		defer func() {
			cancelShadow()
			shadow.Wait()
		}()
		sinks = append(sinks, shadow)
	}

	h, err := host.New(ctx, host.Options{
		Name:      cfg.Host.Name,
		RunID:     runID,
		Policy:    policy,
		Specs:     config.LinkSpecs(cfg, runID),
		Spawner:   link.ExecSpawner{Stdout: os.Stdout, Stderr: os.Stderr},
		Observer:  printLog{logger: logger},
		Notifiers: notifiers,
		Sinks:     sinks,
		Logger:    &logger,
	})
	if err != nil {
		return err
	}

	var adminSrv *server.Admin
	if admin {
		adminSrv = server.New(cfg.Host.Name, cfg.Host.AdminAddr, cfg.Host.CorsOrigins, h.Board(), h)
		go func() {
			if err := adminSrv.Serve(); err != nil {
				logger.Error().Err(err).Msg("admin server stopped")
			}
		}()
	}

	online := h.Start()
	logger.Info().
		Str("host", h.Name()).
		Str("run_id", runID).
		Int("links", h.Registry().Len()).
		Int("online", online).
		Msg("host started")

	runErr := h.Run(ctx)

	if adminSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("admin shutdown")
		}
		cancel()
	}
	if err := h.Shutdown(); err != nil && !errors.Is(err, link.ErrClosed) {
		logger.Warn().Err(err).Msg("shutdown")
	}
	logger.Info().Str("host", h.Name()).Msg("host stopped")
	return runErr
}
