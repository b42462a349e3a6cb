// Command dealanalyzerd serves the HTTP API, the gRPC MetricsService and,
// when an inbox is configured, a document watcher.
//
// Server reflection lists dealanalyzer.v1.MetricsService but cannot describe
// it: the ServiceDesc is hand-written over google.protobuf.Struct and carries
// no file descriptor. Clients pass api/dealanalyzer/v1/metrics.proto instead:
//
//	grpcurl -plaintext -import-path api -proto dealanalyzer/v1/metrics.proto \
//		-d '{"text":"NOI: $84,000"}' localhost:9090 dealanalyzer.v1.MetricsService/ExtractMetrics
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/app"
	"github.com/joseph-ayodele/deal-analyzer/internal/async"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/ingest"
	"github.com/joseph-ayodele/deal-analyzer/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	zlog, err := zap.NewProduction()
	if err != nil {
		logger.Error("failed to build grpc logger", "error", err)
		os.Exit(1)
	}
	defer func() { _ = zlog.Sync() }()

	cfg := common.LoadConfig()
	if err := cfg.Validate(false); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Init(ctx, cfg, app.Options{}, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := server.PingDB(ctx, a.DB, logger, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Inbox watcher
	var queue *async.ProcessorQueue
	if cfg.Ingest.InboxDir != "" {
		queue = async.NewProcessorQueue(a.Ingestor.Handle, logger,
			async.WithWorkers(cfg.Ingest.Workers),
			async.WithQueueSize(cfg.Ingest.QueueSize),
			async.WithProcessTimeout(3*time.Minute),
		)
		go func() {
			err := ingest.Watch(ctx, ingest.WatchConfig{
				Roots:       []string{cfg.Ingest.InboxDir},
				AllowedExts: constants.AllowedExtensions,
				InitialScan: cfg.Ingest.InitialScan,
				Debounce:    cfg.Ingest.Debounce,
				Logger:      logger,
			}, queue, cfg.Ingest.DefaultGoal)
			if err != nil {
				logger.Error("inbox watcher stopped", "dir", cfg.Ingest.InboxDir, "error", err)
			}
		}()
		logger.Info("watching inbox", "dir", cfg.Ingest.InboxDir, "workers", cfg.Ingest.Workers)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var queueLen func() int
	if queue != nil {
		queueLen = queue.Len
	}
	inst := server.NewInstrumentation(reg, queueLen)

	// HTTP server
	httpSrv := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: server.NewHTTPServer(server.HTTPConfig{
			Processor:      a.Processor,
			Repo:           a.Repo,
			Exports:        a.Exports,
			Health:         a.DB,
			Metrics:        inst,
			Logger:         logger,
			MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
			RequestTimeout: cfg.LLM.Timeout + time.Minute,
		}).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC server
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	server.RegisterMetricsServiceServer(grpcServer, server.NewMetricsService(a.Repo, inst, zlog))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.MetricsServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		logger.Info("deal-analyzer grpc listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("deal-analyzer http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}
	grpcServer.GracefulStop()
	logger.Info("stopped")
}
