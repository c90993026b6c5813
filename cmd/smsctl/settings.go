package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write stored settings",
	}

	var showSecrets bool
	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				v, err := c.app.Settings.Get(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, v)
				return nil
			}

			all, err := c.app.Settings.All(ctx)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				v := all[k]
				if !showSecrets && isSecret(k) && v != "" {
					v = "********"
				}
				fmt.Fprintf(out, "%s=%s\n", k, v)
			}
			return nil
		},
	}
	get.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens and API keys in full")

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Settings.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "_token") || strings.HasSuffix(key, "_api_key")
}
