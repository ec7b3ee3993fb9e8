package main

import (
	"time"

	configapi "financial_insights/pkg/api/config"
	insightapi "financial_insights/pkg/api/insight"
	"financial_insights/pkg/api/server"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			var history insightapi.History
			if a.history != nil {
				history = a.history
			}
			insights := insightapi.NewHandler(a.service, history)
			insights.SetCatalog(a.registry)
			deps := server.Dependencies{
				Insights: insights,
				Config:   configapi.NewHandler(a.cfg),
			}
			if p, ok := a.provider.(server.Pinger); ok {
				deps.Backend = p
			}

			api := server.NewWebAPI(*zerolog.Ctx(ctx), server.Config{
				Addr:            addr,
				ShutdownTimeout: 15 * time.Second,
				Dependencies:    deps,
			})
			return api.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
