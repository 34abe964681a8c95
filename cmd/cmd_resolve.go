// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/recoord/resolve"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var resolveOptions struct {
	provider string
	dbPath   string
	file     string
	workers  int
	timeout  time.Duration
	trace    bool
}

// newResolver builds the configured provider, wrapped with the duckdb cache
// when --db is set.
func newResolver(ctx context.Context) (resolve.Resolver, func(), error) {
	var resolver resolve.Resolver

	switch resolveOptions.provider {
	case resolve.ProviderNominatim:
		options := &resolve.NominatimOptions{
			UserAgent: fmt.Sprintf("recoord/%s (+https://github.com/jcodagnone/recoord)", Version),
			Timeout:   resolveOptions.timeout,
		}
		if resolveOptions.trace {
			options.Trace = os.Stderr
		}

		resolver = resolve.NewNominatim(options)
	case resolve.ProviderGoogle:
		var err error

		resolver, err = resolve.NewGoogleMapsFromEnv(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("configuring google maps: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unknown provider %q (want nominatim or google)", resolveOptions.provider)
	}

	cleanup := func() {}

	if resolveOptions.dbPath != "" {
		db, err := sql.Open("duckdb", resolveOptions.dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}

		repo := resolve.NewRepository(db)
		if err := repo.CreateSchema(); err != nil {
			db.Close()

			return nil, nil, fmt.Errorf("creating schema: %w", err)
		}

		resolver = resolve.NewCached(resolver, repo)
		cleanup = func() { db.Close() }
	}

	return resolver, cleanup, nil
}

func resolveSingle(ctx context.Context, resolver resolve.Resolver, address string) error {
	result, err := resolver.Resolve(ctx, address)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", result.DisplayName)
	fmt.Printf("  latitude:   %s\n", strconv.FormatFloat(result.Coordinate.Lat(), 'f', -1, 64))
	fmt.Printf("  longitude:  %s\n", strconv.FormatFloat(result.Coordinate.Lng(), 'f', -1, 64))
	fmt.Printf("  confidence: %s\n", result.Confidence)
	fmt.Printf("  provider:   %s\n", result.Provider)

	return nil
}

// resolveFile resolves every non-empty line of the file concurrently and
// writes a CSV of address, latitude, longitude, display name and confidence
// to out. Failed lookups are logged and skipped.
func resolveFile(ctx context.Context, resolver resolve.Resolver, path string, out io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	var addresses []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			addresses = append(addresses, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	n := len(addresses)

	workers := resolveOptions.workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Resolving"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	type row struct {
		index  int
		record []string
	}

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, workers)
	rowChan := make(chan row, n)
	errChan := make(chan error, n)

	for i, address := range addresses {
		wg.Add(1)

		go func(index int, address string) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			result, err := resolver.Resolve(ctx, address)
			if err != nil {
				errChan <- fmt.Errorf("resolving %q - %w", address, err)
			} else {
				rowChan <- row{index: index, record: []string{
					address,
					strconv.FormatFloat(result.Coordinate.Lat(), 'f', -1, 64),
					strconv.FormatFloat(result.Coordinate.Lng(), 'f', -1, 64),
					result.DisplayName,
					result.Confidence,
				}}
			}

			// progress reporting must never count as a failed
			// resolution, and errChan holds one slot per address
			if bar == nil {
				log.Printf("Resolved %s", address)
			} else if err := bar.Add(1); err != nil {
				log.Printf("Updating progress bar - %s", err)
			}
		}(i, address)
	}

	wg.Wait()
	close(rowChan)
	close(errChan)

	failed := 0

	for err := range errChan {
		failed++

		log.Printf("Resolution failed - %s", err)
	}

	records := make([][]string, n)
	for r := range rowChan {
		records[r.index] = r.record
	}

	writer := csv.NewWriter(out)

	if err := writer.Write([]string{"address", "latitude", "longitude", "display_name", "confidence"}); err != nil {
		return err
	}

	for _, record := range records {
		if record == nil {
			continue
		}

		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()

	log.Printf("Resolution complete - %d resolved, %d failed from %d addresses.", n-failed, failed, n)

	return writer.Error()
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [address]",
	Short: "Resolve a free-text address to coordinates",
	Long: `
Resolve a free-text address to coordinates through an external geocoding
provider. With --file, every line of the file is resolved concurrently and
the results are written as CSV to stdout. With --db, resolutions are cached
in a local duckdb database and never looked up twice.
`,
	Example: `  recoord resolve "Plaza Independencia, Montevideo"
  recoord resolve --file addresses.txt --db cache.duckdb > resolved.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (len(args) == 0) == (resolveOptions.file == "") {
			return fmt.Errorf("provide an address or --file, not both")
		}

		ctx := cmd.Context()

		resolver, cleanup, err := newResolver(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if resolveOptions.file != "" {
			return resolveFile(ctx, resolver, resolveOptions.file, os.Stdout)
		}

		return resolveSingle(ctx, resolver, args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&resolveOptions.provider, "provider", "nominatim", "geocoding provider (nominatim, google)")
	rootCmd.PersistentFlags().DurationVar(&resolveOptions.timeout, "timeout", 10*time.Second, "per-lookup timeout")
	rootCmd.PersistentFlags().BoolVar(&resolveOptions.trace, "trace", false, "dump provider HTTP traffic to stderr")

	resolveCmd.Flags().StringVar(&resolveOptions.dbPath, "db", "", "duckdb file for the resolution cache")
	resolveCmd.Flags().StringVar(&resolveOptions.file, "file", "", "file with one address per line")
	resolveCmd.Flags().IntVar(&resolveOptions.workers, "workers", 0, "concurrent lookups for --file; 0 means NumCPU")

	rootCmd.AddCommand(resolveCmd)
}
