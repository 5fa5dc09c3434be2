package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediasort/internal"
)

var jsonFlag bool

var surveyCmd = &cobra.Command{
	Use:   "survey [folder]",
	Short: "Report what a sort of folder would do, without touching it",
	Long: `Count photos and videos under folder and how many of them are already
named by capture time, already in place, or need metadata to be dated.
Neither metadata nor files are changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := args[0]

		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("folder does not exist or is not a directory: %s", folder)
		}

		// the ledger is optional here; a running sort holds it exclusively
		var checker internal.LedgerChecker
		if _, err := os.Stat(conf.Ledger); err == nil {
			ledger, err := internal.OpenLedger(conf.Ledger, false, logger)
			if err != nil {
				logger.Warn("ledger not available, skipping ledger counts", "err", err)
			} else {
				defer ledger.Close()
				checker = ledger
			}
		}

		report, err := internal.Survey(folder, conf.PathFilter(), checker)
		if err != nil {
			return fmt.Errorf("failed to survey folder: %w", err)
		}

		if jsonFlag {
			return report.WriteJSON(cmd.OutOrStdout())
		}
		report.Print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	surveyCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output JSON")

	rootCmd.AddCommand(surveyCmd)
}
