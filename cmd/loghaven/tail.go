// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/elastic/loghaven/internal/config"
	"github.com/elastic/loghaven/internal/pgstore"
	"github.com/elastic/loghaven/internal/tailview"
)

var tailOpts = tailview.Options{}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the logs table like tail -f",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ok := config.FromContext(cmd.Context())
		if !ok {
			return fmt.Errorf("configuration missing from context")
		}
		ctx := cmd.Context()

		db, err := pgstore.Open(ctx, cfg.DSN(), 1)
		if err != nil {
			return err
		}
		defer db.Close()

		tailOpts.Table = cfg.RootTableName
		tailer := &tailview.Tailer{DB: db, Out: os.Stdout, Opts: tailOpts}
		if err := tailer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	tailCmd.Flags().StringVarP(&tailOpts.Query, "query", "q", "", "query expression to filter events")
	tailCmd.Flags().StringVarP(&tailOpts.MaxAge, "max-age", "a", "1 hour", "maximum age of printed entries (postgres interval)")
	tailCmd.Flags().Int64VarP(&tailOpts.MaxLines, "max-lines", "l", 1000, "maximum lines per poll")
	tailCmd.Flags().DurationVarP(&tailOpts.PollInterval, "poll-interval", "i", 500*time.Millisecond, "time between polls")
	tailCmd.Flags().StringArrayVarP(&tailOpts.Fields, "field", "f", nil, "field to print (repeatable, default hostname syslogtag msg)")
	rootCmd.AddCommand(tailCmd)
}
