package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagVerbose bool
	flagPages   int
	flagRefresh bool
)

var rootCmd = &cobra.Command{
	Use:   "scr",
	Short: "Personalized news feed client",
	Long: `scr fetches a personalized news feed from the classification backend,
composed from your category preferences, with local caching and pagination.`,
	SilenceUsage: true,
	RunE:         runFeed,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.Flags().IntVar(&flagPages, "pages", 1, "number of feed pages to fetch")
	rootCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "bypass the cache and refetch from scratch")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(statusCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scr %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
