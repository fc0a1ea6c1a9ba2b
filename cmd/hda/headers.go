package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thauanfonseca/HDA/internal/sheet"
)

func (a *app) headersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers <file>",
		Short: "Print the column names of a spreadsheet",
		Long:  `Print the header row of an .xlsx or .xls file, one column per line, to help write the mapping section of a rules file.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			cols, err := sheet.Headers(args[0], data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, col := range cols {
				fmt.Fprintln(out, col)
			}
			return nil
		},
	}
}
