package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/finrisk/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema migrations",
	Long: `Applies or rolls back the embedded SQL migrations.

Subcommands:
  up      - apply every pending migration
  down    - roll back the latest migration
  status  - list migrations and their state

Example:
  go run ./cmd/riskctl migrate up
  go run ./cmd/riskctl migrate status`,
}

var (
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(func(ctx context.Context, db *database.DB) error {
				versions, err := db.MigrateUp(ctx)
				if err != nil {
					return err
				}
				if len(versions) == 0 {
					fmt.Println("✅ Schema is up to date")
					return nil
				}
				for _, v := range versions {
					fmt.Printf("✅ Applied %05d\n", v)
				}
				return nil
			})
		},
	}

	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(func(ctx context.Context, db *database.DB) error {
				version, err := db.MigrateDown(ctx)
				if err != nil {
					return err
				}
				if version == 0 {
					fmt.Println("Nothing to roll back")
					return nil
				}
				fmt.Printf("✅ Rolled back %05d\n", version)
				return nil
			})
		},
	}

	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrationDB(func(ctx context.Context, db *database.DB) error {
				statuses, err := db.MigrationStatuses(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Printf("  %05d  %-8s %s\n", s.Version, state, s.Path)
				}
				return nil
			})
		},
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// withMigrationDB connects without wiring services
func withMigrationDB(fn func(ctx context.Context, db *database.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.New(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	return fn(context.Background(), db)
}
