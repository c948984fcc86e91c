// Package cmd is the mindmaps command line.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindmaps/config"
	"mindmaps/logging"
)

var version = "0.3.0"

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "mindmaps",
	Short: "mindmaps: edit mind maps in the terminal or over HTTP",
	Long: Brand.Sprint("mindmaps") + ": nodes, connections and gestures\n" +
		Subtle.Sprint("Edit maps in the terminal, serve them to the mobile app, export them anywhere"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		l, err := logging.New(c.Log)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		logger.Debug("configuration loaded", zap.Strings("sources", cfg.LoadedFrom))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.SetVersionTemplate("mindmaps {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (.yaml, .toml or .json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		serveCmd(),
		editCmd(),
		listCmd(),
		exportCmd(),
		importCmd(),
		patchCmd(),
		validateCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		Bad.Printf("mindmaps: %v\n", err)
	}
	return err
}
