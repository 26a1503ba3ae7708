package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/nooze/internal/feeds"
	"github.com/runnerr0/nooze/internal/metrics"
	"github.com/runnerr0/nooze/internal/transport/httpapi"
	ingestuc "github.com/runnerr0/nooze/internal/usecase/ingest"
)

const shutdownTimeout = 10 * time.Second

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	return withRuntime(c.globals, func(rt *runtime) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var fetcher ingestuc.Fetcher
		if c.Ingest {
			fetcher = feeds.NewFetcher(time.Duration(rt.cfg.Feeds.TimeoutSeconds) * time.Second)
		}
		return c.serve(ctx, rt, fetcher)
	})
}

// handler builds the JSON API for a prepared runtime.
func (c *ServeCommand) handler(rt *runtime) http.Handler {
	return httpapi.NewServer(rt.searchService(), rt.logger).
		WithName(rt.cfg.Server.Name).
		WithMaxRequestSize(rt.cfg.Server.MaxRequestSize).
		Routes()
}

func (c *ServeCommand) addr(rt *runtime) string {
	host, port := rt.cfg.Server.Host, rt.cfg.Server.Port
	if c.Host != "" {
		host = c.Host
	}
	if c.Port > 0 {
		port = c.Port
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// serve runs the API until ctx is cancelled, then drains in-flight requests.
// A non-nil fetcher also runs the ingest daemon; serve does not return before
// the daemon has stopped.
func (c *ServeCommand) serve(ctx context.Context, rt *runtime, fetcher ingestuc.Fetcher) error {
	metrics.Register()

	ctx, cancelDaemon := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancelDaemon()
		wg.Wait()
	}()

	srv := &http.Server{
		Addr:              c.addr(rt),
		Handler:           c.handler(rt),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if fetcher != nil {
		ingester := newIngester(rt, fetcher, rt.cfg.Feeds.Sources)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ingester.Daemon(ctx, func(res ingestuc.Result) {
				rt.logger.Info("ingest pass",
					zap.Int("processed", res.Processed),
					zap.Int("added", res.Added),
					zap.Int("failed_sources", res.Failed),
				)
			})
			if err != nil {
				rt.logger.Error("ingest daemon stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	rt.logger.Info("received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	rt.logger.Info("server stopped")
	return nil
}
