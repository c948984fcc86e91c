package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindmaps/persistence"
	"mindmaps/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mind map API",
		Long: `Serve maps over HTTP for the mobile app and other clients.

  mindmaps serve                 # listen on the configured address
  mindmaps serve --addr :9000    # override the address`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := newStack()
			if err != nil {
				return err
			}
			defer s.close(context.Background())

			opts := []server.Option{
				server.WithConfig(cfg.Server),
				server.WithSaver(s.saver),
				server.WithLogger(logger),
				server.WithSystem(s.sys),
				server.WithSizer(s.sizer),
				server.WithGeometry(s.geometry()),
				server.WithImporter(s.importer()),
				server.WithEngineOptions(s.engineOptions()...),
			}
			if s.proposer != nil {
				opts = append(opts, server.WithProposer(s.proposer))
			}
			if s.metrics != nil {
				opts = append(opts, server.WithMetrics(s.metrics))
			}
			srv := server.New(s.store, opts...)

			if cfg.Storage.Watch {
				w, err := persistence.NewWatcher(s.store.Dir(), cfg.Storage.WatchDebounce, logger, srv.ChangeFunc(ctx))
				if err != nil {
					logger.Warn("storage watcher disabled", zap.Error(err))
				} else {
					defer w.Close()
					go w.Run(ctx)
				}
			}

			fmt.Printf("%s listening on %s  %s\n",
				Brand.Sprint("mindmaps"), Good.Sprint(cfg.Server.Addr), Subtle.Sprint("storage "+s.store.Dir()))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides configuration)")
	return cmd
}
