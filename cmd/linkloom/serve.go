package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pbaille/linkloom/internal/api"
	"github.com/pbaille/linkloom/internal/domain"
	"github.com/pbaille/linkloom/internal/logger"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession()
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			stateLog := a.log.With(logger.String("component", "state"))
			unsubscribe := a.store.Subscribe(func(state domain.AppState) {
				b, _ := state.Active()
				stateLog.Debug("state changed",
					logger.Int("briefings", len(state.Briefings)),
					logger.String("active", state.ActiveID()),
					logger.Int("sources", len(b.Sources)),
					logger.Int("notes", len(b.Notes)))
			})
			defer unsubscribe()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.New(api.Config{
				Store:     a.store,
				Provider:  a.ids,
				ShareBase: a.cfg.Share.BaseURL,
				Addr:      addr,
				Logger:    a.log.With(logger.String("component", "api")),
			})
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (defaults to server.addr)")
	return cmd
}
