package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"maturity/internal/config"
	"maturity/internal/session"
)

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

func newWatchCommand(app *App) *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the board in sync and redraw it on every refresh",
		Long: `Fetch the product list, then refresh it periodically until interrupted.
The board is redrawn after every completed fetch.

With --metrics-addr (or metrics.addr) set, Prometheus metrics are served
at /metrics on that address.

Example:
  maturity watch --interval 30s --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return app.fail(err)
			}
			ctx := cmd.Context()

			if addr := firstNonEmpty(metricsAddr, app.Config.Metrics.Addr); addr != "" && app.Registry != nil {
				stop := serveMetrics(app, addr)
				defer stop()
			}

			app.Store.SetRefreshInterval(interval)
			unsubscribe := app.Store.Subscribe(func(snap session.Snapshot) {
				if snap.State == session.StateLoading {
					return
				}
				app.renderSnapshot(format, snap)
			})
			defer unsubscribe()

			if err := app.Store.Start(ctx); err != nil {
				if errors.Is(err, session.ErrStopped) || errors.Is(err, session.ErrAlreadyStarted) {
					return app.fail(err)
				}
				app.Logger.Warn("initial fetch failed, retrying on next refresh", "error", err)
			}

			<-ctx.Done()
			app.Store.Stop()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh period (default sync.refresh_interval)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func (a *App) renderSnapshot(format string, snap session.Snapshot) {
	if ok, err := a.emit(format, snap.Products); ok {
		if err != nil {
			a.Logger.Error("encode products", "error", err)
		}
		return
	}
	if format == config.FormatTable {
		a.Printer.Table(snap.Products)
	} else {
		a.Printer.Board(snap.Products)
	}
	a.Printer.SyncStatus(snap)
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

// serveMetrics starts the metrics endpoint and returns a function that shuts
// it down.
func serveMetrics(app *App, addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsHandler(app.Registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	app.Logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			app.Logger.Warn("metrics server shutdown", "error", err)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
