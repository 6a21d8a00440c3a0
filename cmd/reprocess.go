package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reprocessLimit   int
	reprocessDryRun  bool
	reprocessReembed bool
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Re-extract stored profiles from their saved HTML",
	Long:  "Re-runs field extraction over raw HTML already in the database, without fetching. Use --reembed to also rebuild chunks and embeddings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := zap.L()
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.processor.ProfileIDs(ctx, reprocessLimit)
		if err != nil {
			return err
		}
		if reprocessDryRun {
			for _, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "would reprocess profile %d\n", id)
			}
			return nil
		}

		var failed int
		for _, id := range ids {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := a.processor.Reprocess(ctx, id, reprocessReembed); err != nil {
				failed++
				logger.Warn("reprocess failed", zap.Int64("profile_id", id), zap.Error(err))
			}
		}
		logger.Info("reprocess finished",
			zap.Int("profiles", len(ids)),
			zap.Int("failed", failed),
			zap.Bool("reembed", reprocessReembed),
		)
		if failed > 0 {
			return fmt.Errorf("%d of %d profiles failed", failed, len(ids))
		}
		return nil
	},
}

func init() {
	reprocessCmd.Flags().IntVar(&reprocessLimit, "limit", 0, "maximum profiles to reprocess (0 = all)")
	reprocessCmd.Flags().BoolVar(&reprocessDryRun, "dry-run", false, "list profiles without reprocessing")
	reprocessCmd.Flags().BoolVar(&reprocessReembed, "reembed", false, "also rebuild chunks and embeddings")
	rootCmd.AddCommand(reprocessCmd)
}
