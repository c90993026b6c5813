package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unclebandit/membercast/internal/translate"
)

func (c *cli) translateCmd() *cobra.Command {
	var req translate.Request
	cmd := &cobra.Command{
		Use:   "translate <text>...",
		Short: "Translate text with the configured provider",
		Long: `Translate text between Arabic and Swedish. The default bilingual mode
detects the language and answers in the other one; --mode single translates
from --from to --to.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Text = strings.Join(args, " ")
			res := c.app.Translator.Translate(cmd.Context(), req)
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.TranslatedText)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Mode, "mode", translate.ModeBilingual, "bilingual or single")
	cmd.Flags().StringVar(&req.SourceLanguage, "from", "", "source language for single mode")
	cmd.Flags().StringVar(&req.TargetLanguage, "to", "", "target language for single mode")
	return cmd
}
