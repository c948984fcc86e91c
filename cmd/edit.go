package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindmaps/demo"
	"mindmaps/persistence"
	"mindmaps/terminal"
)

func editCmd() *cobra.Command {
	var (
		title   string
		script  string
		example bool
	)

	cmd := &cobra.Command{
		Use:   "edit [map-id]",
		Short: "Edit a map in the terminal",
		Long: `Open a map in the full screen editor. Without an id, or with an id
that does not exist yet, a new map is created.

  Mouse: click to select, drag to move, double click to rename or to
  create a node, right button (or the c latch) drag from a node to connect.
  Keys:  u undo, Ctrl-R redo, w save, arrows pan, g home, q quit.

Logs go to the configured output; set log.output to a file, since the
editor owns the terminal.

--demo plays a YAML gesture script into the editor; --demo-example prints one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if example {
				fmt.Print(demo.Example)
				return nil
			}
			var demoScript *demo.Script
			if script != "" {
				sc, err := demo.Load(script)
				if err != nil {
					return err
				}
				demoScript = sc
			}

			var id string
			if len(args) == 1 {
				id = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := newStack()
			if err != nil {
				return err
			}
			defer s.close(context.Background())

			e, created, err := s.openOrCreate(ctx, id, title)
			if err != nil {
				return err
			}
			if created {
				logger.Info("map created", zap.String("map_id", e.ID()))
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("opening terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("initialising terminal: %w", err)
			}
			defer screen.Fini()

			app := terminal.NewApp(screen, e,
				terminal.WithGrid(cfg.Terminal),
				terminal.WithLogger(logger),
			)

			if cfg.Storage.Watch {
				w, err := persistence.NewWatcher(s.store.Dir(), cfg.Storage.WatchDebounce, logger,
					e.Follow(ctx, s.store, app.Reloaded))
				if err != nil {
					logger.Warn("storage watcher disabled", zap.Error(err))
				} else {
					defer w.Close()
					go w.Run(ctx)
				}
			}

			if demoScript != nil {
				go func() {
					err := demo.NewPlayer(demoScript, screen).Play(ctx)
					if err != nil && ctx.Err() == nil {
						logger.Warn("demo stopped", zap.String("script", script), zap.Error(err))
					}
				}()
			}

			if err := app.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			e.Flush(context.Background())
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "Mapa", "Title for a new map")
	cmd.Flags().StringVar(&script, "demo", "", "Play a gesture script after opening")
	cmd.Flags().BoolVar(&example, "demo-example", false, "Print an example gesture script")
	return cmd
}
