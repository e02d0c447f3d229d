package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/localrivet/gomcp/server"
	"go.uber.org/zap"

	"github.com/hnky/agentcon-weather-mcp/internal/client"
	"github.com/hnky/agentcon-weather-mcp/internal/config"
	"github.com/hnky/agentcon-weather-mcp/internal/observability"
	"github.com/hnky/agentcon-weather-mcp/internal/tools"
)

const serverName = "weather-mcp"

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	// Flags override env, env overrides the config file.
	transport := flag.String("transport", cfg.Transport, "MCP transport: stdio, sse, or streamable-http")
	host := flag.String("host", cfg.Host, "host to bind (sse/streamable-http)")
	port := flag.Int("port", cfg.Port, "port to bind (sse/streamable-http)")
	flag.Parse()

	weatherClient, err := client.NewOpenMeteoClientWithLimiter(
		cfg.OpenMeteoURL,
		cfg.OpenMeteoTimeout,
		cfg.UpstreamRPS,
		cfg.UpstreamBurst,
		logger,
	)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	srv := server.NewServer(serverName)
	tools.NewHandler(weatherClient, logger).Register(srv)

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	switch *transport {
	case config.TransportStdio:
		srv.AsStdio()
	case config.TransportSSE:
		warnNonLoopback(logger, *host)
		srv.AsSSE(addr)
	case config.TransportStreamableHTTP:
		warnNonLoopback(logger, *host)
		srv.AsHTTP(addr)
	default:
		logger.Fatal("unsupported transport", zap.String("transport", *transport))
	}

	var metricsSrv *http.Server
	if cfg.MetricsPort != "" {
		metricsSrv = newMetricsServer(cfg.MetricsPort)
		go func() {
			logger.Info("metrics listener starting", zap.String("addr", metricsSrv.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener", zap.Error(err))
			}
		}()
	}

	logger.Info("server starting",
		zap.String("transport", *transport),
		zap.String("addr", addr),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("graceful shutdown triggered")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics listener shutdown", zap.Error(err))
		}
	}

	if err := observability.FlushTelemetry(shutdownCtx, logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// newMetricsServer builds the sidecar listener serving /health and /metrics.
func newMetricsServer(port string) *http.Server {
	router := mux.NewRouter()
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods("GET")

	return &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// warnNonLoopback notes when an HTTP transport binds a non-loopback address,
// where external Host headers (e.g. a cloud FQDN in front of a container)
// will be accepted.
func warnNonLoopback(logger *zap.Logger, host string) {
	if isLoopback(host) {
		return
	}
	logger.Warn("binding non-loopback address; external Host headers accepted", zap.String("host", host))
}

func isLoopback(host string) bool {
	switch host {
	case "127.0.0.1", "localhost", "::1":
		return true
	}
	return false
}
