package main

import (
	"context"
	"fmt"
	"os"

	"github.com/smartwork/assistant/internal/config"
	"github.com/smartwork/assistant/internal/database"
	"github.com/smartwork/assistant/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "swctl",
	Short: "Administration tool for the Smart Work Assistant data store",
	Long: `swctl inspects and repairs Smart Work Assistant data directly in the
configured store: moving records between accounts, importing legacy exports
and listing who owns what.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := zap.NewDevelopmentConfig()
		if !verbose {
			cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// openStore loads the config and connects to its store. The caller closes it.
func openStore(ctx context.Context) (store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == config.DriverMemory {
		return nil, fmt.Errorf("database driver %q keeps no data between runs", cfg.Database.Driver)
	}
	return database.Open(ctx, cfg, false)
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, st store.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close(ctx)
	return fn(ctx, st)
}
