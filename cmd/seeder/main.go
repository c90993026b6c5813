// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/app"
	"github.com/unclebandit/membercast/internal/config"
	"github.com/unclebandit/membercast/internal/importer"
	"github.com/unclebandit/membercast/internal/logger"
	"github.com/unclebandit/membercast/internal/service"
)

func main() {
	if err := newSeedCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	var (
		cfgPath    string
		dsn        string
		duplicates string
	)
	cmd := &cobra.Command{
		Use:   "seeder <file>...",
		Short: "Load members from CSV or XLSX files into the database",
		Long: `Seed the member list through the regular import pipeline.

Files are imported in order. Rows whose phone number is already stored are
resolved with --duplicates (skip, overwrite or keep-both).`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := importer.ParseDuplicateHandling(duplicates)
			if err != nil {
				return err
			}
			cfg, err := config.LoadFromEnv(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if dsn != "" {
				cfg.Database.DSN = dsn
			}
			l := logger.New(logger.Options{Level: cfg.Logging.Level, Format: "console", ServiceName: "membercast-seeder", Stderr: true})
			defer l.Sync()

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, l)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, path := range args {
				if err := seedFile(ctx, a.Members, path, policy, cmd.OutOrStdout()); err != nil {
					l.Error("seeding failed", zap.String("file", path), zap.Error(err))
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database seeding completed successfully!")
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "config.yaml", "path to the YAML config file")
	cmd.Flags().StringVar(&dsn, "db", "", "database DSN, overrides the config")
	cmd.Flags().StringVar(&duplicates, "duplicates", string(importer.DuplicateSkip), "duplicate handling: skip, overwrite or keep-both")
	return cmd
}

func seedFile(ctx context.Context, members *service.MemberService, path string, policy importer.DuplicateHandling, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	preview, err := members.PreviewFile(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	for _, msg := range preview.Errors {
		fmt.Fprintf(out, "%s: %s\n", path, msg)
	}
	if len(preview.Parsed) == 0 && len(preview.Duplicates) == 0 {
		return fmt.Errorf("no members found in %s", path)
	}

	res, err := members.CommitImport(ctx, preview, policy)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded: %s (%s, %d duplicates)\n", path, res.Message, len(preview.Duplicates))
	for _, msg := range res.Errors {
		fmt.Fprintf(out, "  %s\n", msg)
	}
	return nil
}
