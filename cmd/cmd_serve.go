// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/recoord/resolve"
	"github.com/jcodagnone/recoord/server"
	"github.com/spf13/cobra"
)

var serveOptions struct {
	addr   string
	dbPath string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the coordinate and resolution API over HTTP",
	Long: `
Serve the JSON API: coordinate parsing and formatting, address resolution and
the resolution cache. Resolutions go through the configured provider and are
cached in the duckdb database.
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		resolver, cleanup, err := newResolver(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		var repo resolve.Repository

		if serveOptions.dbPath != "" {
			db, err := sql.Open("duckdb", serveOptions.dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			repo = resolve.NewRepository(db)
			if err := repo.CreateSchema(); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}

			resolver = resolve.NewCached(resolver, repo)
		}

		log.Printf("Serving on %s", serveOptions.addr)

		return server.NewServer(resolver, repo).Run(serveOptions.addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOptions.addr, "addr", "localhost:8080", "listen address")
	serveCmd.Flags().StringVar(&serveOptions.dbPath, "db", "recoord.duckdb", "duckdb file for the resolution cache; empty disables caching")

	rootCmd.AddCommand(serveCmd)
}
