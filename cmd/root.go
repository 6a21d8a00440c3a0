package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/config"
	"github.com/uniwebdev/staffsearch/internal/logging"
)

var (
	cfgPath string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "staffsearch",
	Short: "University staff profile crawler and search service",
	Long:  "Crawls university staff pages, extracts and embeds profile text, and serves hybrid lexical/semantic search plus chat over the indexed corpus.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.ReplaceGlobals(logger)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
}

// Execute runs the CLI, exiting nonzero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
