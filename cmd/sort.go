package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mediasort/internal"
)

var (
	noPruneFlag    bool
	noManifestFlag bool
	watchFlag      bool
)

var sortCmd = &cobra.Command{
	Use:   "sort [folder]",
	Short: "Rename media by capture time and move it into year/month folders",
	Long: `Walk the folder, give every photo and video its capture time as name and
move it under <year>/<month>. Files the ledger already knows are skipped,
empty folders are removed afterwards. With --watch the folder is sorted
once and then kept sorted as new files arrive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := args[0]

		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("folder does not exist or is not a directory: %s", folder)
		}

		return runSort(cmd.Context(), conf, folder, watchFlag, cmd.OutOrStdout())
	},
}

// runSort opens everything a run needs, sorts folder once and, when watch
// is set, keeps watching it until ctx is cancelled.
func runSort(ctx context.Context, conf *internal.Config, folder string, watch bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	tags, err := internal.OpenTagStore(conf.Metadata, conf.ExiftoolPath, logger)
	if err != nil {
		return err
	}
	defer tags.Close()

	ledger, err := internal.OpenLedger(conf.Ledger, true, logger)
	if errors.Is(err, internal.ErrLedgerLocked) {
		return fmt.Errorf("another mediasort run is using %s", conf.Ledger)
	}
	if err != nil {
		return err
	}
	defer ledger.Close()

	var manifest *internal.RunManifest
	if conf.Manifest && !conf.DryRun {
		manifest, err = internal.NewRunManifest(conf.RunsDir(), folder)
		if err != nil {
			return err
		}
		defer manifest.Close()
	}

	filter := conf.PathFilter()
	engine, err := internal.NewEngine(folder, internal.EngineOptions{
		Filter:   filter,
		Tags:     tags,
		Ledger:   ledger,
		Manifest: manifest,
		DryRun:   conf.DryRun,
		Prune:    conf.Prune,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if conf.DryRun {
		fmt.Fprintln(out, "Dry run mode: no files will be moved, tagged or recorded")
	}
	logger.Info("sorting", "root", engine.Root(), "ledger", ledger.Path(), "dry_run", conf.DryRun)

	var summary internal.Summary
	if watch {
		// sort what is there, then follow changes
		if _, err := engine.Run(ctx); err != nil {
			return err
		}
		w, err := internal.NewWatcher(engine.Root(), filter, logger)
		if err != nil {
			return err
		}
		defer w.Close()
		logger.Info("watching for new files, press Ctrl+C to stop", "root", engine.Root(), "settle", conf.WatchSettle)
		summary, err = engine.Watch(ctx, w, conf.WatchSettle)
		if err != nil {
			return err
		}
	} else {
		summary, err = engine.Run(ctx)
		if err != nil {
			return err
		}
	}

	summary.Print(out, conf.DryRun)
	if stats := engine.Errors(); stats.Total > 0 {
		fmt.Fprint(out, stats.GenerateReport())
	}
	if manifest != nil {
		fmt.Fprintf(out, "\nRun manifest: %s\n", manifest.Path)
	}
	return nil
}

func init() {
	sortCmd.Flags().Bool("dry-run", false, "Show what would happen without changing anything")
	sortCmd.Flags().String("metadata", internal.MetadataAuto, "Metadata back-end: auto, exiftool, native")
	sortCmd.Flags().String("exiftool", "", "Path to the exiftool binary")
	sortCmd.Flags().BoolVar(&noPruneFlag, "no-prune", false, "Keep empty folders")
	sortCmd.Flags().BoolVar(&noManifestFlag, "no-manifest", false, "Do not write a run manifest")
	sortCmd.Flags().BoolVar(&watchFlag, "watch", false, "Keep running and sort new files as they arrive")

	_ = v.BindPFlag("dry_run", sortCmd.Flags().Lookup("dry-run"))
	_ = v.BindPFlag("metadata", sortCmd.Flags().Lookup("metadata"))
	_ = v.BindPFlag("exiftool_path", sortCmd.Flags().Lookup("exiftool"))

	sortCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if noPruneFlag {
			conf.Prune = false
		}
		if noManifestFlag {
			conf.Manifest = false
		}
	}

	rootCmd.AddCommand(sortCmd)
}
