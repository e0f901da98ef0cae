package main

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/feather-classroom/feather/storage"
)

var databaseURL string

func main() {
	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the feather postgres schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("FEATHER_DATABASE_URL")
			}
			if databaseURL == "" {
				return errors.New("no database url, use --database-url or FEATHER_DATABASE_URL")
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection url (defaults to $FEATHER_DATABASE_URL)")

	for _, c := range []struct{ command, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the last migration"},
		{"status", "Print the state of every migration"},
		{"version", "Print the current schema version"},
	} {
		root.AddCommand(gooseCommand(c.command, c.short))
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func gooseCommand(command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.OpenPostgres(databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.Migrate(db.DB, command); err != nil {
				return err
			}
			log.Infof("migrate %s: done", command)
			return nil
		},
	}
}
