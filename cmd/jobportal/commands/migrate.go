package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"jobportal/internal/database"
)

// MigrateAction applies the embedded schema to DATABASE_URL.
func MigrateAction(ctx context.Context, cmd *cli.Command) error {
	ac, err := newAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer ac.Close()

	db, err := ac.openDB(ctx)
	if err != nil {
		return err
	}
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	ac.logger.Info("migrations applied")
	return nil
}
