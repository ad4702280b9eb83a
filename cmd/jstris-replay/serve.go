package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/jstris-replay-go/internal/api"
	"github.com/MJE43/jstris-replay-go/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		listen string
		noDB   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if listen == "" {
				listen = a.cfg.Listen
			}

			var db store.DB
			if !noDB {
				sqlite, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer sqlite.Close()
				db = sqlite
			}

			server := api.NewServer(api.Config{
				DB:          db,
				Codec:       a.codec(),
				Analysis:    a.cfg.Analysis,
				Logger:      a.logger,
				ScanTimeout: a.cfg.Scan.DefaultTimeout,
				MaxHits:     a.cfg.Scan.MaxHits,
			})
			if _, err := server.Start(listen); err != nil {
				return err
			}

			<-ctx.Done()
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&noDB, "no-db", false, "Run without the replay database")
	return cmd
}
