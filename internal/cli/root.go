package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable/internal/bootstrap"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/logger"
)

// RootCmd returns the timetable command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "timetable",
		Short: "Generate and inspect school timetables",
		Long: `timetable runs the weekly timetable generator against the configured database.
Configuration is read from .env and the environment, the same way the API server reads it.`,
		SilenceUsage: true,
	}

	root.AddCommand(MigrateCmd())
	root.AddCommand(GenerateCmd())
	root.AddCommand(GenerateAllCmd())
	root.AddCommand(ClearCmd())
	root.AddCommand(ListCmd())
	return root
}

// withApp loads configuration, opens storage and runs fn with a ready application.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	app, err := bootstrap.New(cfg, logr)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return fn(ctx, app)
}
