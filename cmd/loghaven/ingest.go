// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elastic/loghaven/internal/config"
	"github.com/elastic/loghaven/internal/ingest"
	"github.com/elastic/loghaven/internal/pgstore"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Read rsyslog JSON from stdin and store it",
	Long: `Read newline-delimited rsyslog "jsonmesg" records from stdin and
insert them into the partitioned logs table.

Meant to run under rsyslog's omprog output module with confirmMessages
enabled: loghaven prints OK once when ready and once per stored event.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := config.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("configuration missing from context")
		}
		ctx := cmd.Context()

		db, err := pgstore.Open(ctx, cfg.DSN(), pgstore.DefaultPoolSize)
		if err != nil {
			return err
		}
		defer db.Close()

		cache, err := pgstore.NewStmtCache(db, cfg.StatementCacheSize)
		if err != nil {
			return err
		}
		defer cache.Close()

		pipeline := &ingest.Pipeline{
			In:  os.Stdin,
			Out: os.Stdout,
			Writer: &ingest.TableWriter{
				DB:     db,
				Cache:  cache,
				Chain:  cfg.Strategies(),
				Logger: logger,
			},
			SwapVarsMsg: cfg.UseVarsMsg,
			Logger:      logger,
		}
		return pipeline.Run(ctx)
	},
}

func init() {
	ingestCmd.Flags().Bool("use-vars-msg", false, "swap msg with the daemon-provided vars.msg")
	ingestCmd.Flags().Int("statement-cache-size", config.DefaultStatementCacheSize, "prepared insert statements to keep")
	rootCmd.AddCommand(ingestCmd)
}
