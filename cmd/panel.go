package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/w3penalty/internal/config"
	"github.com/Mohsinsiddi/w3penalty/internal/session"
	"github.com/Mohsinsiddi/w3penalty/internal/ui"
)

var panelMetricsAddr string

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Open the interactive penalty panel",
	Long: `Open the interactive panel: contract info, your penalties, an address
panel for view / issue / clear, admin settings and the live transaction status.

With --metrics-addr the session's Prometheus metrics are served on /metrics
while the panel runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics := session.NewMetrics()
		conn, err := connect(cmd.Context(), metrics)
		if err != nil {
			return err
		}
		defer conn.Close()

		if panelMetricsAddr != "" {
			stop, err := serveMetrics(panelMetricsAddr, metrics)
			if err != nil {
				return err
			}
			defer stop()
		}

		return ui.RunPanel(conn.sess, ui.PanelConfig{
			Network:  conn.chain.NetworkName(conn.mode),
			Currency: conn.chain.Currency(conn.mode),
			Contract: conn.contract.Address().Hex(),
			ReadOnly: conn.readOnly(),
			TxURL:    conn.txURL,
			Timeout:  config.SendTimeout,
		})
	},
}

// serveMetrics starts the metrics endpoint and returns a function that shuts
// it down.
func serveMetrics(addr string, m *session.Metrics) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func init() {
	panelCmd.Flags().StringVar(&panelMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
}
