package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	accountrepo "github.com/leadhub/leadhub-backend/internal/account/repository"
	authrepo "github.com/leadhub/leadhub-backend/internal/auth/repository"
	authservice "github.com/leadhub/leadhub-backend/internal/auth/service"
	"github.com/leadhub/leadhub-backend/pkg/database"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
)

func newInvitationsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invitations",
		Short: "Maintain team invitations",
	}

	var tenantID string
	expire := &cobra.Command{
		Use:   "expire",
		Short: "Mark lapsed pending invitations as expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tenantID != "" {
				if err := httputil.ValidateVar(cmd.Context(), "tenant", tenantID, "uuid"); err != nil {
					return err
				}
			}
			return e.withDB(func(db *database.DB) error {
				n, err := accountrepo.NewInvitationRepository(db).ExpireStale(cmd.Context(), tenantID, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "expired %d invitation(s)\n", n)
				return nil
			})
		},
	}
	expire.Flags().StringVar(&tenantID, "tenant", "", "only expire invitations of this tenant")
	cmd.AddCommand(expire)

	return cmd
}

func newSessionsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain sign-in sessions",
	}

	var retention time.Duration
	clean := &cobra.Command{
		Use:   "clean",
		Short: "Delete ended sessions and spent password reset grants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if retention < 0 {
				return fmt.Errorf("--retention must not be negative")
			}
			return e.withDB(func(db *database.DB) error {
				svc := authservice.NewAuthService(db, authservice.Stores{
					Sessions: authrepo.NewSessionRepository(db),
					Resets:   authrepo.NewPasswordResetRepository(db),
				}, nil, nil, nil, nil, authservice.Options{}, e.log)

				n, err := svc.CleanSessions(cmd.Context(), retention)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d session(s)\n", n)
				return nil
			})
		},
	}
	clean.Flags().DurationVar(&retention, "retention", 30*24*time.Hour, "keep ended sessions this long")
	cmd.AddCommand(clean)

	return cmd
}
