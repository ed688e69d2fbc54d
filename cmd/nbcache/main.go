// Command nbcache is a debugging aid for document authors: it exposes the
// chunk parser, the dependency slicer and the full extraction pipeline on
// the command line. Documents themselves consume the library API; nothing
// here adds semantics on top of it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nbcache/internal/config"
)

var (
	// Global flags
	cfgFile  string
	verbose  bool
	flexible bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nbcache",
	Short: "nbcache - inspect and extract compiled document caches",
	Long: `nbcache resolves a document by prefix, parses its code chunks, and can
pull named objects out of the document's compiled cache together with the
minimal code needed to reproduce them.

Documents call the library API during their own compilation; this command
exists so authors can poke at the same machinery interactively.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Verbose = true
		}

		zcfg := zap.NewProductionConfig()
		if cfg.Logging.Verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flexible, "flexible", true, "search sibling workflows and chaptered files")

	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(sliceCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
