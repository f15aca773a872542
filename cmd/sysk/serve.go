package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pdesnoyers/sysk/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "expose /metrics over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd.Flags())
			log := newLogger(cfg)
			if addr == "" {
				addr = cfg.MetricsAddr
			}
			if addr == "" {
				addr = ":9090"
			}

			reg := metrics.New("sysk")
			mux := http.NewServeMux()
			mux.Handle("/metrics", reg.Handler())

			log.Printf("serving metrics on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("serve: %v", err)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default :9090)")
	return cmd
}
