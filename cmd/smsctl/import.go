package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unclebandit/membercast/internal/importer"
)

func (c *cli) importCmd() *cobra.Command {
	var (
		duplicates string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import members from a CSV or XLSX file",
		Long: `Import members from a semicolon-delimited CSV or an XLSX file whose first
row is FirstName;LastName;SocialNumber;Address;PostalCode;City;Mobile.

Rows whose phone number already exists are handled with --duplicates:
  skip      - leave the stored member alone (default)
  overwrite - replace the stored member's details
  keep-both - add the row as a new member with an annotated phone number`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := importer.ParseDuplicateHandling(duplicates)
			if err != nil {
				return err
			}
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			preview, err := c.app.Members.PreviewFile(ctx, filepath.Base(path), f)
			if err != nil {
				return err
			}
			printPreview(out, preview)
			if len(preview.Parsed) == 0 && len(preview.Duplicates) == 0 {
				return fmt.Errorf("nothing to import from %s", path)
			}

			plan, err := importer.ProcessImport(preview.Parsed, preview.Duplicates, policy)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(out, "Dry run (%s): %d to add, %d to update\n", policy, len(plan.Inserts), len(plan.Updates))
				return nil
			}

			res := c.app.Members.ApplyImport(ctx, plan)
			fmt.Fprintln(out, res.Message)
			for _, msg := range res.Errors {
				fmt.Fprintf(out, "  %s\n", msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&duplicates, "duplicates", string(importer.DuplicateSkip), "duplicate handling: skip, overwrite or keep-both")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be imported without writing")
	return cmd
}

func printPreview(out io.Writer, preview importer.Result) {
	fmt.Fprintf(out, "Parsed %d new members, %d duplicates, %d errors\n",
		len(preview.Parsed), len(preview.Duplicates), len(preview.Errors))
	for _, d := range preview.Duplicates {
		fmt.Fprintf(out, "  duplicate: %s %s (%s) matches %s %s\n",
			d.FirstName, d.LastName, d.Phone, d.Existing.FirstName, d.Existing.LastName)
	}
	for _, msg := range preview.Errors {
		fmt.Fprintf(out, "  %s\n", msg)
	}
}
