package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/codeindex-go/codeindex/internal/obslog"
)

var metricsAddr string

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "codeindex",
		Short: "Build and query a project's file and symbol index",
	}
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "optional address (e.g. :9090) to serve Prometheus metrics on")
	root.AddCommand(indexCmd(), callCmd())
	return root
}

// startMetrics starts a background Prometheus scrape endpoint when
// --metrics-addr is set, returning the registered metrics (or nil) for the
// engine to record against. Kept outside the core engine by design: the
// listener only exists here in the CLI.
func startMetrics() *obslog.Metrics {
	if metricsAddr == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	metrics := obslog.NewMetrics(reg)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		_ = http.ListenAndServe(metricsAddr, mux)
	}()
	return metrics
}
