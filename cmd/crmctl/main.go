// Command crmctl runs administrative tasks against the CRM database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/leadhub/leadhub-backend/pkg/config"
	"github.com/leadhub/leadhub-backend/pkg/database"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// Set with -ldflags "-X main.version=..." at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// env carries what every subcommand needs once flags are parsed.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	var (
		e        env
		logLevel string
	)

	root := &cobra.Command{
		Use:          "crmctl",
		Short:        "Administrative tasks for the CRM backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load("crm-service")
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logger.New("crmctl", cfg.Server.Environment).SetLevel(logLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(&e),
		newInvitationsCmd(&e),
		newSessionsCmd(&e),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// Needs no configuration.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crmctl %s\n", version)
		},
	}
}

// withDB opens the database for the duration of fn.
func (e *env) withDB(fn func(db *database.DB) error) (err error) {
	db, err := database.New(&e.cfg.Database, e.log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()
	return fn(db)
}
