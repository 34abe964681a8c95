// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jcodagnone/recoord/formats"
	"github.com/jcodagnone/recoord/spatial"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var convertOptions struct {
	from      string
	to        string
	precision int
}

// codecByName builds a codec with the configured precision. Precision means
// decimal places for dd, seconds decimal places for dms and characters for
// geohash; -1 keeps each codec's default.
func codecByName(name string, precision int) (formats.Codec, error) {
	for _, codec := range formats.DefaultCodecs() {
		if codec.Name() != name {
			continue
		}

		if precision < 0 {
			return codec, nil
		}

		switch c := codec.(type) {
		case formats.DD:
			c.Precision = precision

			return c, nil
		case formats.DMS:
			c.SecondsPrecision = precision

			return c, nil
		case formats.Geohash:
			c.Length = precision

			return c, nil
		}
	}

	return nil, fmt.Errorf("unknown format %q (want dd, dms or geohash)", name)
}

type conversion struct {
	input      string
	coordinate spatial.Coordinate
	detected   string
	output     string
}

func convertOne(text string) (*conversion, error) {
	var (
		coordinate spatial.Coordinate
		codec      formats.Codec
		err        error
	)

	if convertOptions.from == "" {
		coordinate, codec, err = formats.Detect(text)
	} else {
		codec, err = codecByName(convertOptions.from, -1)
		if err != nil {
			return nil, err
		}

		coordinate, err = codec.Parse(text)
	}

	if err != nil {
		return nil, err
	}

	target, err := codecByName(convertOptions.to, convertOptions.precision)
	if err != nil {
		return nil, err
	}

	output, err := target.Format(coordinate)
	if err != nil {
		return nil, err
	}

	return &conversion{
		input:      text,
		coordinate: coordinate,
		detected:   codec.Name(),
		output:     output,
	}, nil
}

// printConversions emits one converted value per line when piped, and a table
// with every format when stdout is a terminal.
func printConversions(conversions []*conversion) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		for _, c := range conversions {
			fmt.Println(c.output)
		}

		return nil
	}

	names := []string{"dd", "dms", "geohash"}
	header := append([]string{"Input", "Format"}, names...)
	rows := make([][]string, 0, len(conversions))

	for _, conv := range conversions {
		row := []string{conv.input, conv.detected}

		for _, name := range names {
			codec, err := codecByName(name, convertOptions.precision)
			if err != nil {
				return err
			}

			text, err := codec.Format(conv.coordinate)
			if err != nil {
				return fmt.Errorf("formatting %q as %s: %w", conv.input, name, err)
			}

			row = append(row, text)
		}

		rows = append(rows, row)
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len([]rune(cell)))
		}
	}

	line := func(left, mid, right string) {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}

		fmt.Println(left + strings.Join(parts, mid) + right)
	}

	printRow := func(cells []string) {
		fmt.Print("│")

		for i, cell := range cells {
			fmt.Printf(" %-*s │", widths[i], cell)
		}

		fmt.Println()
	}

	line("╭", "┬", "╮")
	printRow(header)
	line("├", "┼", "┤")

	for _, row := range rows {
		printRow(row)
	}

	line("╰", "┴", "╯")

	return nil
}

var convertCmd = &cobra.Command{
	Use:   "convert [coordinate]...",
	Short: "Convert coordinates between formats",
	Long: `
Convert coordinates between decimal degrees, degrees minutes seconds and
geohash. With no arguments, coordinates are read from stdin, one per line.
The source format is detected unless --from is given.
`,
	Example: `  recoord convert "50°10'20\"N 10°25'30\"E"
  recoord convert --to geohash --precision 7 "10.5,-20.25"
  echo ezs42 | recoord convert --to dms`,
	RunE: func(_ *cobra.Command, args []string) error {
		inputs := args

		if len(inputs) == 0 {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line != "" {
					inputs = append(inputs, line)
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
		}

		if len(inputs) == 0 {
			return fmt.Errorf("nothing to convert")
		}

		conversions := make([]*conversion, 0, len(inputs))

		for _, input := range inputs {
			conv, err := convertOne(input)
			if err != nil {
				return fmt.Errorf("converting %q: %w", input, err)
			}

			conversions = append(conversions, conv)
		}

		return printConversions(conversions)
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertOptions.from, "from", "", "source format (dd, dms, geohash); detected when empty")
	convertCmd.Flags().StringVar(&convertOptions.to, "to", "dd", "target format (dd, dms, geohash)")
	convertCmd.Flags().IntVar(&convertOptions.precision, "precision", -1, "target precision; decimal places for dd/dms, characters for geohash")

	rootCmd.AddCommand(convertCmd)
}
