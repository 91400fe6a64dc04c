package cmd

import (
	"stuffbox-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, db, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repository.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info().Msg("Schema applied")
		return nil
	},
}
