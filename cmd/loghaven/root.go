// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elastic/loghaven/internal/config"
)

// Global flags shared across commands.
// Values are bound via Viper; variables keep Cobra compatibility.
var (
	configFile  string
	dbURLFlag   string
	tableFlag   string
	verboseFlag bool
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "loghaven",
	Short: "Store and query syslog events in PostgreSQL",
	Long: `Loghaven ingests rsyslog events into time-partitioned PostgreSQL
tables and serves them back over a streaming query API.

Feed it from rsyslog with 'loghaven ingest', serve the HTTP API with
'loghaven serve', and follow live logs with 'loghaven tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = newLogger(verboseFlag); err != nil {
			return err
		}
		cfg, err := config.Load(cmd, configFile)
		if err != nil {
			return err
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags (Viper precedence: flags > env > config file > defaults)
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbURLFlag, "db-url", "", "database connection string (env: LOGHAVEN_DB_URL)")
	rootCmd.PersistentFlags().StringVarP(&tableFlag, "table", "t", config.DefaultRootTableName, "root table name (env: LOGHAVEN_ROOT_TABLE_NAME)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the process logger. Everything goes to stderr so stdout
// stays free for the ingest acknowledgment protocol.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
