package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobblez1/blob2/internal/config"
	servernet "github.com/bobblez1/blob2/internal/net"
	"github.com/bobblez1/blob2/internal/net/ws"
	"github.com/bobblez1/blob2/internal/telemetry"
	"github.com/bobblez1/blob2/logging"
	loggingSinks "github.com/bobblez1/blob2/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

// Run serves the arena until ctx is cancelled: the session loop and the
// HTTP server run side by side and the first failure stops both.
func Run(ctx context.Context, cfg config.Config, logger telemetry.Logger) error {
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return err
	}

	sinks, err := buildSinks(cfg.RouterConfig())
	if err != nil {
		return err
	}
	router := logging.NewRouter(nil, cfg.RouterConfig(), sinks)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := telemetry.NewCounters()
	hub := ws.NewHub(ws.HubConfig{
		BroadcastEvery: cfg.Server.BroadcastEvery,
		Logger:         logger,
		Metrics:        metrics,
	})
	manager := NewManager(ManagerConfig{
		Base:    cfg,
		Router:  router,
		Hub:     hub,
		Logger:  logger,
		Metrics: metrics,
	})

	handler := servernet.NewHTTPHandler(manager, servernet.HTTPHandlerConfig{
		Logger:        logger,
		Observability: cfg.Observability,
		WebSocket:     ws.NewHandler(hub),
	})
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return manager.Run(gctx)
	})
	g.Go(func() error {
		logger.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildSinks(cfg logging.Config) ([]logging.NamedSink, error) {
	var sinks []logging.NamedSink
	if cfg.HasSink(logging.SinkConsole) {
		sinks = append(sinks, logging.NamedSink{Name: logging.SinkConsole, Sink: loggingSinks.NewConsoleSink(os.Stdout)})
	}
	if cfg.HasSink(logging.SinkJSON) {
		path := cfg.JSON.FilePath
		if path == "" {
			path = "arena-events.jsonl"
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open json log sink: %w", err)
		}
		sinks = append(sinks, logging.NamedSink{Name: logging.SinkJSON, Sink: loggingSinks.NewJSON(file, cfg.JSON.FlushInterval)})
	}
	return sinks, nil
}
