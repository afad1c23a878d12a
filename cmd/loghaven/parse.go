// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elastic/loghaven/internal/query"
)

var parseOffset int

var parseCmd = &cobra.Command{
	Use:   "parse <query>",
	Short: "Compile a query expression to SQL",
	Long: `Compile a query expression and print the resulting SQL fragment
and its parameter bindings. Useful for debugging query syntax.`,
	Args: cobra.ExactArgs(1),
	// Compilation is pure; no configuration or database needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		sqlText, params, err := query.ToSQL(args[0], parseOffset)
		if err != nil {
			return err
		}
		fmt.Println(sqlText)
		for i, p := range params {
			value, err := p.Value()
			if err != nil {
				return err
			}
			fmt.Printf("$%d = %s\n", parseOffset+i, value)
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().IntVar(&parseOffset, "offset", 1, "first placeholder number")
	rootCmd.AddCommand(parseCmd)
}
