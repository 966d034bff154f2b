package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/incident-feed-etl/internal/adapter/feed"
	httpadapter "github.com/couchcryptid/incident-feed-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/incident-feed-etl/internal/adapter/kafka"
	wsadapter "github.com/couchcryptid/incident-feed-etl/internal/adapter/websocket"
	"github.com/couchcryptid/incident-feed-etl/internal/config"
	"github.com/couchcryptid/incident-feed-etl/internal/domain"
	"github.com/couchcryptid/incident-feed-etl/internal/observability"
	"github.com/couchcryptid/incident-feed-etl/internal/pipeline"
	"github.com/couchcryptid/incident-feed-etl/internal/reftable"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ref, err := reftable.Load(cfg.ReferenceTable)
	if err != nil {
		logger.Error("failed to load reference table", "path", cfg.ReferenceTable, "error", err)
		os.Exit(1)
	}
	logger.Info("reference table loaded",
		"path", cfg.ReferenceTable,
		"routes", ref.Routes.Routes(),
		"sign_rules", ref.Signs.Len(),
		"region_rectangles", len(ref.Region.Rectangles()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Subscribers.
	var sinks []pipeline.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}
	var wsHandler http.Handler
	hubDone := make(chan struct{})
	if cfg.WebSocketEnabled {
		hub := wsadapter.NewHub(logger, metrics)
		go func() {
			hub.Run(ctx)
			close(hubDone)
		}()
		wsHandler = wsadapter.NewHandler(hub, cfg.WebSocketBuffer, logger)
		sinks = append(sinks, hub)
		logger.Info("websocket subscriptions enabled", "path", "/ws", "buffer", cfg.WebSocketBuffer)
	} else {
		close(hubDone)
	}
	if len(sinks) == 0 {
		logger.Warn("no subscribers enabled, accepted incidents are only counted")
	}
	publisher := pipeline.NewMultiPublisher(logger, metrics, sinks...)

	pipelines, err := buildPipelines(cfg, ref, publisher, logger, metrics)
	if err != nil {
		logger.Error("failed to build pipelines", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, pipelines, wsHandler, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start one poll loop per feed.
	pipelinesDone := make(chan struct{})
	go func() {
		defer close(pipelinesDone)
		if err := pipelines.RunAll(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	pipelines.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-pipelinesDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipelines did not finish before shutdown timeout")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	<-hubDone
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func buildPipelines(cfg *config.Config, ref *reftable.Reference, publisher *pipeline.MultiPublisher, logger *slog.Logger, metrics *observability.Metrics) (pipeline.Pipelines, error) {
	pipelines := make(pipeline.Pipelines, 0, len(cfg.Feeds))
	for _, src := range cfg.Feeds {
		normalizer, err := domain.NewNormalizer(domain.NormalizerConfig{
			Agency:   src.Agency,
			Routes:   ref.Routes,
			Signs:    ref.Signs,
			Location: cfg.FeedTimezone,
			Logger:   logger.With("feed", src.Name),
			OnZoneFallback: func(string) {
				metrics.ZoneFallbacks.Inc()
			},
		})
		if err != nil {
			return nil, err
		}
		validator, err := domain.NewValidator(src.Agency, ref.Region)
		if err != nil {
			return nil, err
		}

		pipelines = append(pipelines, pipeline.New(pipeline.Config{
			Feed:         src.Name,
			Fetcher:      feed.NewSource(src.URL, cfg.FetchTimeout, logger.With("feed", src.Name)),
			Normalizer:   normalizer,
			Validator:    validator,
			Loader:       publisher,
			PollInterval: cfg.PollInterval,
			Logger:       logger,
			Metrics:      metrics,
		}))
		logger.Info("feed configured", "feed", src.Name, "agency", src.Agency, "url", src.URL)
	}
	return pipelines, nil
}
