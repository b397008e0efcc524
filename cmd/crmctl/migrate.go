package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leadhub/leadhub-backend/internal/migrations"
	"github.com/leadhub/leadhub-backend/pkg/database"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withDB(func(db *database.DB) error {
				m, err := migrations.New(db.DB, e.log)
				if err != nil {
					return err
				}
				n, err := m.Up(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they ran",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withDB(func(db *database.DB) error {
				m, err := migrations.New(db.DB, e.log)
				if err != nil {
					return err
				}
				list, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				printStatus(cmd, list)
				return nil
			})
		},
	})

	return cmd
}

func printStatus(cmd *cobra.Command, list []migrations.Status) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
	for _, s := range list {
		applied := "pending"
		if s.Applied() {
			applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%04d\t%s\t%s\n", s.Version, s.Name, applied)
	}
	_ = w.Flush()
}
