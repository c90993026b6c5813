// Command smsctl manages the member list and sends SMS from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/app"
	"github.com/unclebandit/membercast/internal/config"
	"github.com/unclebandit/membercast/internal/logger"
)

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute runs one smsctl invocation and releases whatever it opened.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{}
	defer c.close()

	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// cli holds the global flags and the services opened for a command.
type cli struct {
	cfgPath  string
	dsn      string
	mockSMS  bool
	logLevel string

	app *app.App
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "smsctl",
		Short: "Manage members and send SMS campaigns",
		Long: `smsctl works directly against the membercast database.

Available commands:
  members   - list, add, delete and export members
  import    - import members from a CSV or XLSX file
  send      - send a message to all members or selected numbers
  settings  - read and write stored settings
  translate - translate text with the configured provider`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
	}
	root.PersistentFlags().StringVar(&c.cfgPath, "config", "config.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&c.dsn, "db", "", "database DSN, overrides the config")
	root.PersistentFlags().BoolVar(&c.mockSMS, "mock-sms", false, "record messages instead of sending them")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		c.membersCmd(),
		c.importCmd(),
		c.sendCmd(),
		c.settingsCmd(),
		c.translateCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFromEnv(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.dsn != "" {
		cfg.Database.DSN = c.dsn
	}
	if c.mockSMS {
		cfg.SMS.Provider = "mock"
	}
	l := logger.New(logger.Options{
		Level:       c.logLevel,
		Format:      "console",
		ServiceName: "smsctl",
		Stderr:      true,
	})

	a, err := app.New(cmd.Context(), cfg, l)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		c.app.Logger.Warn("failed to close", zap.Error(err))
	}
	_ = c.app.Logger.Sync()
	c.app = nil
}
