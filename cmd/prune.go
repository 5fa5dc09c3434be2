package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediasort/internal"
)

var pruneDryRunFlag bool

var pruneCmd = &cobra.Command{
	Use:   "prune [folder]",
	Short: "Remove empty folders below folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := args[0]

		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("folder does not exist or is not a directory: %s", folder)
		}

		dryRun := pruneDryRunFlag || conf.DryRun
		pruned, err := internal.PruneEmptyDirs(folder, conf.PathFilter(), dryRun, logger)
		if err != nil {
			return fmt.Errorf("failed to prune %s: %w", folder, err)
		}

		out := cmd.OutOrStdout()
		verb := "Removed"
		if dryRun {
			verb = "Would remove"
		}
		for _, dir := range pruned {
			fmt.Fprintf(out, "  %s\n", dir)
		}
		fmt.Fprintf(out, "%s %d empty folders\n", verb, len(pruned))
		return nil
	},
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneDryRunFlag, "dry-run", false, "List empty folders without removing them")

	rootCmd.AddCommand(pruneCmd)
}
