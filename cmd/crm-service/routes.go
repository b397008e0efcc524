package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	accounthandler "github.com/leadhub/leadhub-backend/internal/account/handler"
	authhandler "github.com/leadhub/leadhub-backend/internal/auth/handler"
	crmhandler "github.com/leadhub/leadhub-backend/internal/crm/handler"
	"github.com/leadhub/leadhub-backend/internal/gateway"
	mediahandler "github.com/leadhub/leadhub-backend/internal/media/handler"
	onboardinghandler "github.com/leadhub/leadhub-backend/internal/onboarding/handler"
	"github.com/leadhub/leadhub-backend/pkg/config"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/i18n"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
)

// handlers holds every HTTP handler the service mounts.
type handlers struct {
	Auth        *authhandler.AuthHandler
	Tenant      *accounthandler.TenantHandler
	Profiles    *accounthandler.ProfileHandler
	Invitations *accounthandler.InvitationHandler
	Audit       *accounthandler.AuditHandler
	Onboarding  *onboardinghandler.OnboardingHandler
	Contacts    *crmhandler.ContactHandler
	Leads       *crmhandler.LeadHandler
	Activities  *crmhandler.ActivityHandler
	Settings    *crmhandler.SettingsHandler
	Avatars     *mediahandler.AvatarHandler
}

func newRouter(cfg *config.Config, gw *gateway.Gateway, h handlers, m *metrics.Metrics, health http.HandlerFunc, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(m.Middleware)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)

	r.Get("/health", health)
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, m.Handler())
	}

	// Avatar objects are public; keys are unguessable.
	r.Get("/storage/v1/object/public/{bucket}/*", h.Avatars.Public)
	r.Head("/storage/v1/object/public/{bucket}/*", h.Avatars.Public)

	perm := gw.RequirePermission

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Auth.SignUp)
			r.Post("/signin", h.Auth.SignIn)
			r.Post("/refresh", h.Auth.Refresh)
			r.Post("/password/forgot", h.Auth.ForgotPassword)
			r.Post("/password/reset", h.Auth.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(gw.Authenticate)
				r.Post("/signout", h.Auth.SignOut)
				r.Get("/me", h.Auth.Me)
				r.Put("/password", h.Auth.UpdatePassword)
			})
		})

		r.Route("/public/invitations/{token}", func(r chi.Router) {
			r.Get("/", h.Invitations.GetByToken)
			r.Post("/accept", h.Invitations.Accept)
		})

		r.Group(func(r chi.Router) {
			r.Use(gw.Authenticate)
			r.Use(gw.RequireTenant)

			r.Route("/tenant", func(r chi.Router) {
				r.With(perm(permissions.TenantRead)).Get("/", h.Tenant.Get)
				r.With(perm(permissions.TenantWrite)).Patch("/", h.Tenant.Update)
			})

			r.Route("/profiles", func(r chi.Router) {
				r.With(perm(permissions.ProfilesRead)).Get("/", h.Profiles.List)
				r.Get("/me", h.Profiles.Me)
				r.Get("/me/owner", h.Profiles.Owner)
				r.Post("/me/avatar", h.Avatars.Upload)
				r.Delete("/me/avatar", h.Avatars.Delete)
				r.With(perm(permissions.ProfilesRead)).Get("/{id}", h.Profiles.Get)
				// Members may edit themselves; the service enforces the rest.
				r.Patch("/{id}", h.Profiles.Update)
				r.With(perm(permissions.ProfilesManage)).Patch("/{id}/role", h.Profiles.ChangeRole)
				r.With(perm(permissions.ProfilesManage)).Delete("/{id}", h.Profiles.Remove)
			})

			r.Route("/invitations", func(r chi.Router) {
				r.With(perm(permissions.InvitationsRead)).Get("/", h.Invitations.List)
				r.Group(func(r chi.Router) {
					r.Use(perm(permissions.InvitationsWrite))
					r.Post("/", h.Invitations.Create)
					r.Post("/{id}/revoke", h.Invitations.Revoke)
					r.Post("/{id}/resend", h.Invitations.Resend)
				})
			})

			r.Route("/onboarding", func(r chi.Router) {
				r.Get("/", h.Onboarding.Get)
				r.Put("/steps/{step}", h.Onboarding.SaveStep)
				r.Post("/previous", h.Onboarding.Previous)
				r.Post("/complete", h.Onboarding.Complete)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.With(perm(permissions.ContactsRead)).Get("/", h.Contacts.List)
				r.With(perm(permissions.ContactsWrite)).Post("/", h.Contacts.Create)
				r.With(perm(permissions.ContactsRead)).Get("/{id}", h.Contacts.Get)
				r.With(perm(permissions.ContactsWrite)).Patch("/{id}", h.Contacts.Update)
				r.With(perm(permissions.ContactsWrite)).Delete("/{id}", h.Contacts.Delete)
			})

			r.Route("/leads", func(r chi.Router) {
				r.With(perm(permissions.LeadsRead)).Get("/", h.Leads.List)
				r.With(perm(permissions.LeadsWrite)).Post("/", h.Leads.Create)
				r.With(perm(permissions.LeadsRead)).Get("/{id}", h.Leads.Get)
				r.With(perm(permissions.LeadsWrite)).Patch("/{id}", h.Leads.Update)
				r.With(perm(permissions.LeadsWrite)).Delete("/{id}", h.Leads.Delete)
			})

			r.Route("/activities", func(r chi.Router) {
				r.With(perm(permissions.ActivitiesRead)).Get("/", h.Activities.List)
				r.With(perm(permissions.ActivitiesWrite)).Post("/", h.Activities.Create)
				r.With(perm(permissions.ActivitiesRead)).Get("/{id}", h.Activities.Get)
				r.With(perm(permissions.ActivitiesWrite)).Patch("/{id}", h.Activities.Update)
				r.With(perm(permissions.ActivitiesWrite)).Delete("/{id}", h.Activities.Delete)
				r.With(perm(permissions.ActivitiesWrite)).Post("/{id}/complete", h.Activities.Complete)
			})

			r.Route("/settings", func(r chi.Router) {
				r.With(perm(permissions.SettingsRead)).Get("/", h.Settings.Get)
				r.With(perm(permissions.SettingsWrite)).Post("/", h.Settings.Create)
				r.With(perm(permissions.SettingsWrite)).Patch("/", h.Settings.Update)
			})

			r.With(perm(permissions.DashboardRead)).Get("/dashboard/stats", h.Settings.Stats)
			r.With(perm(permissions.AuditRead)).Get("/audit", h.Audit.List)
		})
	})

	return r
}
