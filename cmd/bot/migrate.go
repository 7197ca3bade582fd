package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"quizbot/internal/config"
	"quizbot/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		databaseURL, dir := config.LoadDatabase()
		if d, _ := cmd.Flags().GetString("dir"); d != "" {
			dir = d
		}

		ctx := context.Background()
		pool, err := database.NewPostgresPool(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := database.RunMigrations(ctx, pool, dir); err != nil {
			return err
		}
		log.Println("✓ Database migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().String("dir", "", "Migrations directory (overrides MIGRATIONS_DIR)")
}
