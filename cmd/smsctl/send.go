package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/unclebandit/membercast/internal/service"
)

func (c *cli) sendCmd() *cobra.Command {
	var (
		message string
		to      []string
		title   string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to every member or to the given numbers",
		Long: `Send one message to each recipient in turn. Without --to the message goes
to every stored member. With --title the send is recorded as a campaign.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if title != "" {
				campaign, err := c.app.Campaigns.CreateCampaign(ctx, service.CreateCampaignInput{Title: title, Message: message})
				if err != nil {
					return err
				}
				res, err := c.app.Campaigns.SendCampaign(ctx, campaign.ID, to)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Campaign %d: ", campaign.ID)
				return printSendResult(out, res)
			}

			recipients := to
			if len(recipients) == 0 {
				phones, err := c.app.Members.Phones(ctx)
				if err != nil {
					return err
				}
				recipients = phones
			}
			res, err := c.app.Campaigns.SendMessage(ctx, service.SendRequest{Message: message, Recipients: recipients})
			if err != nil {
				return err
			}
			return printSendResult(out, res)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message text (required)")
	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient phone numbers, all members when omitted")
	cmd.Flags().StringVar(&title, "title", "", "record the send as a campaign with this title")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func printSendResult(out io.Writer, res service.SendResult) error {
	fmt.Fprintln(out, res.Message)
	for _, msg := range res.Errors {
		fmt.Fprintf(out, "  %s\n", msg)
	}
	if !res.Success && res.ErrorCount > 0 {
		return errors.New("no messages were delivered")
	}
	return nil
}
