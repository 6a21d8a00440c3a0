package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uniwebdev/staffsearch/internal/crawl"
)

var (
	seedPriority int
	seedInactive bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Manage crawl seed URLs",
}

var seedAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add or update a seed URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, zap.L())
		if err != nil {
			return err
		}
		defer a.Close()

		url, err := crawl.Normalize(args[0])
		if err != nil {
			return fmt.Errorf("invalid seed url: %w", err)
		}
		if err := a.seeds.UpsertSeed(ctx, url, seedPriority, !seedInactive); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seed saved: %s (priority %d)\n", url, seedPriority)
		return nil
	},
}

var seedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active seed URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, zap.L())
		if err != nil {
			return err
		}
		defer a.Close()

		seeds, err := a.seeds.ActiveSeeds(ctx)
		if err != nil {
			return err
		}
		if len(seeds) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no active seeds")
			return nil
		}
		for _, s := range seeds {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\t%s\n", s.ID, s.Priority, s.URL)
		}
		return nil
	},
}

var seedRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a seed by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed id %q", args[0])
		}
		a, err := newApp(ctx, cfg, zap.L())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.seeds.DeleteSeed(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seed %d removed\n", id)
		return nil
	},
}

func init() {
	seedAddCmd.Flags().IntVar(&seedPriority, "priority", 0, "seed priority (higher first)")
	seedAddCmd.Flags().BoolVar(&seedInactive, "inactive", false, "store the seed but exclude it from priming")
	seedCmd.AddCommand(seedAddCmd, seedListCmd, seedRemoveCmd)
	rootCmd.AddCommand(seedCmd)
}
