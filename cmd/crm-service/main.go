package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	accountevents "github.com/leadhub/leadhub-backend/internal/account/events"
	accounthandler "github.com/leadhub/leadhub-backend/internal/account/handler"
	accountrepo "github.com/leadhub/leadhub-backend/internal/account/repository"
	accountservice "github.com/leadhub/leadhub-backend/internal/account/service"
	authhandler "github.com/leadhub/leadhub-backend/internal/auth/handler"
	"github.com/leadhub/leadhub-backend/internal/auth/jwt"
	authrepo "github.com/leadhub/leadhub-backend/internal/auth/repository"
	authservice "github.com/leadhub/leadhub-backend/internal/auth/service"
	crmevents "github.com/leadhub/leadhub-backend/internal/crm/events"
	crmhandler "github.com/leadhub/leadhub-backend/internal/crm/handler"
	crmrepo "github.com/leadhub/leadhub-backend/internal/crm/repository"
	crmservice "github.com/leadhub/leadhub-backend/internal/crm/service"
	"github.com/leadhub/leadhub-backend/internal/gateway"
	mediahandler "github.com/leadhub/leadhub-backend/internal/media/handler"
	mediaservice "github.com/leadhub/leadhub-backend/internal/media/service"
	"github.com/leadhub/leadhub-backend/internal/media/store"
	"github.com/leadhub/leadhub-backend/internal/migrations"
	onboardinghandler "github.com/leadhub/leadhub-backend/internal/onboarding/handler"
	onboardingrepo "github.com/leadhub/leadhub-backend/internal/onboarding/repository"
	onboardingservice "github.com/leadhub/leadhub-backend/internal/onboarding/service"
	"github.com/leadhub/leadhub-backend/pkg/config"
	"github.com/leadhub/leadhub-backend/pkg/database"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
)

const serviceName = "crm-service"

func main() {
	// Fails fast in production if required config is missing
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting CRM service")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped with error")
	}
	log.Info().Msg("service stopped")
}

func run(cfg *config.Config, log *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()

	if cfg.Database.AutoMigrate {
		migrator, migErr := migrations.New(db.DB, log)
		if migErr != nil {
			return migErr
		}
		if _, migErr = migrator.Up(ctx); migErr != nil {
			return fmt.Errorf("auto-migrate: %w", migErr)
		}
	}

	objects, err := store.Open(cfg.Storage.Path, []string{cfg.Storage.Bucket}, log.WithComponent("objects"))
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, objects.Close()) }()

	var (
		publisher messaging.EventPublisher = messaging.LogPublisher{Logger: log}
		rmqHealth                          = func() map[string]string { return map[string]string{"status": "disabled"} }
	)
	if cfg.RabbitMQ.Enabled {
		rmq, rmqErr := messaging.New(&cfg.RabbitMQ, log)
		if rmqErr != nil {
			return rmqErr
		}
		defer func() { err = multierr.Append(err, rmq.Close()) }()

		p, pubErr := messaging.NewPublisher(rmq, cfg.RabbitMQ.Exchange, serviceName, log)
		if pubErr != nil {
			return pubErr
		}
		publisher, rmqHealth = p, rmq.Health
	}

	m := metrics.New(serviceName)
	clk := clock.New()

	// Repositories
	tenants := accountrepo.NewTenantRepository(db)
	profiles := accountrepo.NewProfileRepository(db)
	invitations := accountrepo.NewInvitationRepository(db)
	contacts := crmrepo.NewContactRepository(db)
	leads := crmrepo.NewLeadRepository(db)
	activities := crmrepo.NewActivityRepository(db)
	settings := crmrepo.NewSettingsRepository(db)

	// Services
	jwtManager := jwt.NewManager(&cfg.JWT, clk)
	authSvc := authservice.NewAuthService(db, authservice.Stores{
		Identities: authrepo.NewIdentityRepository(db),
		Sessions:   authrepo.NewSessionRepository(db),
		Resets:     authrepo.NewPasswordResetRepository(db),
		Tenants:    tenants,
		Profiles:   profiles,
	}, jwtManager, publisher, m, clk, authservice.Options{
		BcryptCost:        cfg.Auth.BcryptCost,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
		ResetExpiry:       cfg.Auth.PasswordResetExpiry,
		FrontendURL:       cfg.App.FrontendURL,
	}, log)

	audit := accountservice.NewAuditService(accountrepo.NewAuditRepository(db), log)
	accountEvents := accountevents.NewAccountEventPublisher(publisher, m, log)
	tenantSvc := accountservice.NewTenantService(db, tenants, profiles, audit, accountEvents, log)
	profileSvc := accountservice.NewProfileService(db, profiles, tenants, authSvc, audit, accountEvents, log)
	invitationSvc := accountservice.NewInvitationService(db, invitations, profiles, tenants, authSvc, audit, accountEvents, clk,
		accountservice.InvitationConfig{Expiry: cfg.Invitations.Expiry, FrontendURL: cfg.App.FrontendURL}, log)

	onboardingSvc := onboardingservice.NewOnboardingService(db, onboardingservice.Stores{
		Drafts:   onboardingrepo.NewDraftRepository(db),
		Tenants:  tenants,
		Profiles: profiles,
		Settings: settings,
	}, audit, publisher, m, log)

	recordEvents := crmevents.NewRecordEventPublisher(publisher, m, log)
	contactSvc := crmservice.NewContactService(contacts, recordEvents, m, log)
	leadSvc := crmservice.NewLeadService(leads, profiles, recordEvents, m, log)
	activitySvc := crmservice.NewActivityService(activities, leads, contacts, recordEvents, m, clk, log)
	settingsSvc := crmservice.NewSettingsService(db, settings, audit, log)
	dashboardSvc := crmservice.NewDashboardService(leads, contacts, activities, clk)

	avatarSvc := mediaservice.NewAvatarService(db, objects, profiles, audit, clk, mediaservice.Options{
		Bucket:    cfg.Storage.Bucket,
		PublicURL: cfg.App.PublicURL,
		MaxBytes:  cfg.Storage.MaxUploadBytes,
	}, log)

	h := handlers{
		Auth:        authhandler.NewAuthHandler(authSvc, log),
		Tenant:      accounthandler.NewTenantHandler(tenantSvc, log),
		Profiles:    accounthandler.NewProfileHandler(profileSvc, log),
		Invitations: accounthandler.NewInvitationHandler(invitationSvc, log),
		Audit:       accounthandler.NewAuditHandler(audit, log),
		Onboarding:  onboardinghandler.NewOnboardingHandler(onboardingSvc, log),
		Contacts:    crmhandler.NewContactHandler(contactSvc, log),
		Leads:       crmhandler.NewLeadHandler(leadSvc, log),
		Activities:  crmhandler.NewActivityHandler(activitySvc, log),
		Settings:    crmhandler.NewSettingsHandler(settingsSvc, dashboardSvc, log),
		Avatars:     mediahandler.NewAvatarHandler(avatarSvc, log),
	}

	health := func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
			"rabbitmq": rmqHealth(),
		})
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newRouter(cfg, gateway.New(jwtManager, profiles, log), h, m, health, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
