package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/config"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/domain/chat"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/inference"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/logger"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/observability"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/weather"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/interfaces/httpserver"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/interfaces/httpserver/handlers/chathandler"
	v1 "github.com/brendonwanderlust/wander-wallet-chat/internal/interfaces/httpserver/routes/v1"
	chatroute "github.com/brendonwanderlust/wander-wallet-chat/internal/interfaces/httpserver/routes/v1/chat"

	_ "net/http/pprof"
)

type Application struct {
	httpServer *httpserver.HTTPServer
	config     *config.Config
}

func (application *Application) Start() {
	var eg errgroup.Group
	eg.Go(func() error {
		return http.ListenAndServe("0.0.0.0:6060", nil)
	})
	eg.Go(func() error {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		return http.ListenAndServe(fmt.Sprintf(":%d", application.config.MetricsPort), metricsMux)
	})
	eg.Go(func() error {
		return application.httpServer.Run()
	})

	if err := eg.Wait(); err != nil {
		panic(err)
	}
}

func main() {
	ctx := context.Background()
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log, err = logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log = logger.GetLogger()
		log.Error().Err(err).Msg("configure logger")
	}

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	store := chat.NewStore()
	assembler := chat.NewAssembler(store)
	weatherClient := weather.NewClient(cfg, log)
	modelClient := inference.NewClient(cfg, weatherClient, log)
	orchestrator := chat.NewOrchestrator(store, assembler, modelClient, log)

	chatHandler := chathandler.NewChatHandler(orchestrator, store)
	v1Route := v1.NewV1Route(chatroute.NewChatRoute(chatHandler))
	server := httpserver.NewHttpServer(v1Route, cfg, log)

	application := &Application{
		httpServer: server,
		config:     cfg,
	}

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Int("metrics_port", cfg.MetricsPort).
		Str("model", cfg.ModelName).
		Msg("starting chat api")

	application.Start()
}
