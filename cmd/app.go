package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/vgrebnev/duolink/internal/application/config"
	"github.com/vgrebnev/duolink/internal/application/constant"
	"github.com/vgrebnev/duolink/internal/application/metric"
	"github.com/vgrebnev/duolink/internal/infra/adapters/memory"
	"github.com/vgrebnev/duolink/internal/infra/ports/http/handlers"
	"github.com/vgrebnev/duolink/internal/infra/ports/http/server"
	"github.com/vgrebnev/duolink/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelInfo},
			),
		),
	)

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	slog.Info("Running app", slog.Bool("debug", cfg.Debug))

	wsConnRepo := memory.NewWSConnectionRepository()
	relay := usecase.NewRelay(wsConnRepo)
	roomRegistry := memory.NewRoomRegistry(relay)

	signalingUsecase := usecase.NewSignalingUsecase(roomRegistry, relay)

	roomHandler := handlers.NewRoomHandler(roomRegistry)
	iceHandler := handlers.NewIceHandler(cfg)
	wsHandler := handlers.NewWebSocketHandler(cfg, wsConnRepo, signalingUsecase)

	echoSrv := server.New(cfg, roomHandler, iceHandler, wsHandler)

	metricsSrv := metric.NewServer()

	reaper := usecase.NewReaper(roomRegistry, cfg.ReapInterval, cfg.RoomRetention)
	go reaper.Run(ctx)

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error(
			"Metrics server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metrics server", slog.Any(constant.Error, err))
	}
}
