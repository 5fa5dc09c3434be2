package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mediasort/internal"
)

// Version is overridden from the embedded VERSION file.
var Version = "dev"

var (
	configFile  string
	verboseFlag bool

	v         = viper.New()
	conf      *internal.Config
	logger    = slog.Default()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "mediasort",
	Short: "Sort photos and videos into a year/month archive by capture time",
	Long: `mediasort renames every photo and video under a folder to the moment it
was taken (YYYY-MM-DD HH.MM.SS.mmm) and moves it into year/month folders,
using metadata where available and the file name otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := internal.LoadConfig(v, configFile)
		if err != nil {
			return err
		}
		conf = c

		l, closer, err := internal.NewLogger(internal.LogOptions{
			Level:   conf.LogLevel,
			File:    conf.LogFile,
			Verbose: verboseFlag,
			Console: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		logger, logCloser = l, closer
		slog.SetDefault(l)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the command line; cancelling ctx stops a run between
// two files.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ApplyVersion copies Version onto the root command.
func ApplyVersion() {
	rootCmd.Version = Version
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default is <user config dir>/mediasort/mediasort.toml)")
	pf.String("ledger", "", "ledger database (default is <state dir>/ledger.db)")
	pf.String("log-file", "", `log file, "off" to disable (default is <state dir>/mediasort.log)`)
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "debug output")

	_ = v.BindPFlag("ledger", pf.Lookup("ledger"))
	_ = v.BindPFlag("log_file", pf.Lookup("log-file"))
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))

	ApplyVersion()
}
