package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/service"
)

func (c *cli) membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List, add, delete and export members",
	}
	cmd.AddCommand(c.membersListCmd(), c.membersAddCmd(), c.membersDeleteCmd(), c.membersExportCmd())
	return cmd
}

func (c *cli) membersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members ordered by first and last name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			members, err := c.app.Members.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPHONE\tCITY")
			for _, m := range members {
				fmt.Fprintf(tw, "%d\t%s %s\t%s\t%s\n", m.ID, m.FirstName, m.LastName, m.Phone, m.City)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d members\n", len(members))
			return nil
		},
	}
}

func (c *cli) membersAddCmd() *cobra.Command {
	var in model.MemberInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add one member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := c.app.Members.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added member %d: %s %s (%s)\n", m.ID, m.FirstName, m.LastName, m.Phone)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first-name", "", "first name (required)")
	f.StringVar(&in.LastName, "last-name", "", "last name (required)")
	f.StringVar(&in.Phone, "phone", "", "mobile number (required)")
	f.StringVar(&in.City, "city", "", "city")
	f.StringVar(&in.SocialNumber, "social-number", "", "social security number")
	f.StringVar(&in.Address, "address", "", "street address")
	f.StringVar(&in.PostalCode, "postal-code", "", "postal code")
	f.StringVar(&in.Notes, "notes", "", "free-form notes")
	return cmd
}

func (c *cli) membersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete members by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid member id %q", arg)
				}
				if err := c.app.Members.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("member %d: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted member %d\n", id)
			}
			return nil
		},
	}
}

func (c *cli) membersExportCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export members in the import format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != service.ExportCSV && format != service.ExportXLSX {
				return fmt.Errorf("unsupported export format %q", format)
			}
			if output == "" || output == "-" {
				return c.app.Members.Export(cmd.Context(), cmd.OutOrStdout(), format)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := c.app.Members.Export(cmd.Context(), f, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported members to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", service.ExportCSV, "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	return cmd
}
