// Package service drives the four-step onboarding wizard and commits the
// collected data in one transaction.
package service

import (
	"context"
	"encoding/json"
	"strconv"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	crmdomain "github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/internal/onboarding/domain"
	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
	"github.com/leadhub/leadhub-backend/pkg/messaging"
	"github.com/leadhub/leadhub-backend/pkg/metrics"
)

// NextStepDashboard is reported once onboarding is done.
const NextStepDashboard = "dashboard"

// Transactor runs fn in a database transaction carried by ctx.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// DraftStore is implemented by repository.DraftRepository.
type DraftStore interface {
	Get(ctx context.Context, profileID string) (*domain.Draft, error)
	Save(ctx context.Context, d *domain.Draft) (*domain.Draft, error)
	Delete(ctx context.Context, profileID string) error
}

// TenantStore is the part of the tenant repository onboarding writes to.
type TenantStore interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Tenant, error)
	Update(ctx context.Context, id string, req *accountdomain.UpdateTenantRequest) (*accountdomain.Tenant, error)
}

// ProfileStore is the part of the profile repository onboarding writes to.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Profile, error)
	CompleteOnboarding(ctx context.Context, tenantID, id string, req *accountdomain.UpdateProfileRequest) (*accountdomain.Profile, error)
}

// SettingsStore is implemented by the CRM settings repository.
type SettingsStore interface {
	Upsert(ctx context.Context, in *crmdomain.SettingsInput) (*crmdomain.Settings, error)
}

// Auditor is implemented by the account audit service.
type Auditor interface {
	Record(ctx context.Context, e accountdomain.AuditEntry) error
}

// Stores groups the persistence dependencies.
type Stores struct {
	Drafts   DraftStore
	Tenants  TenantStore
	Profiles ProfileStore
	Settings SettingsStore
}

// OnboardingService implements the wizard.
type OnboardingService struct {
	tx        Transactor
	stores    Stores
	audit     Auditor
	publisher messaging.EventPublisher
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewOnboardingService creates a new onboarding service; m may be nil.
func NewOnboardingService(tx Transactor, stores Stores, audit Auditor, publisher messaging.EventPublisher, m *metrics.Metrics, log *logger.Logger) *OnboardingService {
	return &OnboardingService{tx: tx, stores: stores, audit: audit, publisher: publisher, metrics: m, logger: log}
}

// pending returns the caller's profile, refusing profiles that already
// finished onboarding.
func (s *OnboardingService) pending(ctx context.Context) (*accountdomain.Profile, error) {
	a := actor.FromContext(ctx)
	if a == nil || a.ID == "" {
		return nil, errors.Unauthorized("")
	}
	p, err := s.stores.Profiles.GetByID(ctx, a.ID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ProfileNotFound()
		}
		return nil, err
	}
	if p.OnboardingComplete {
		return nil, errors.Conflict("").WithMessageKey("errors.onboarding_done", nil)
	}
	return p, nil
}

// Get returns the caller's draft, creating one prefilled from the current
// tenant and profile on first access.
func (s *OnboardingService) Get(ctx context.Context) (*domain.Draft, error) {
	p, err := s.pending(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, p)
}

func (s *OnboardingService) load(ctx context.Context, p *accountdomain.Profile) (*domain.Draft, error) {
	d, err := s.stores.Drafts.Get(ctx, p.ID)
	if err == nil {
		return d, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	t, err := s.stores.Tenants.GetByID(ctx, p.TenantID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.TenantNotFound()
		}
		return nil, err
	}
	return s.stores.Drafts.Save(ctx, &domain.Draft{
		ProfileID:   p.ID,
		TenantID:    p.TenantID,
		CurrentStep: domain.StepTenant,
		Data: domain.DraftData{
			Tenant: &domain.TenantStep{Name: t.Name, Industry: t.Industry, Size: t.Size},
			Company: &domain.CompanyStep{
				Website: t.Website, Phone: t.Phone, Address: t.Address, Description: t.Description,
			},
			User: &domain.UserStep{
				FirstName: p.FirstName, LastName: p.LastName, JobTitle: p.JobTitle, Phone: p.Phone, AvatarURL: p.AvatarURL,
			},
		},
	})
}

// SaveStep validates payload as step n, stores it and moves to the next
// step. Steps past the current one cannot be saved yet.
func (s *OnboardingService) SaveStep(ctx context.Context, step int, payload json.RawMessage) (*domain.Draft, error) {
	if step < domain.StepTenant || step > domain.StepPreferences {
		return nil, errors.NotFound("onboarding step")
	}
	p, err := s.pending(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	if step > d.CurrentStep {
		return nil, errors.BadRequest("").WithMessageKey("errors.onboarding_step_order",
			map[string]string{"step": strconv.Itoa(d.CurrentStep)})
	}

	switch step {
	case domain.StepTenant:
		err = decodeStep(ctx, payload, &d.Data.Tenant)
	case domain.StepCompany:
		err = decodeStep(ctx, payload, &d.Data.Company)
	case domain.StepUser:
		err = decodeStep(ctx, payload, &d.Data.User)
	case domain.StepPreferences:
		err = decodeStep(ctx, payload, &d.Data.Preferences)
	}
	if err != nil {
		return nil, err
	}

	d.CurrentStep = min(step+1, domain.StepPreferences)
	return s.stores.Drafts.Save(ctx, d)
}

// decodeStep replaces *dst with a validated copy of payload.
func decodeStep[T any](ctx context.Context, payload json.RawMessage, dst **T) error {
	v := new(T)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, v); err != nil {
			return errors.BadRequest("").WithMessageKey("errors.invalid_json", nil)
		}
	}
	if err := httputil.Validate(ctx, v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// Previous moves the wizard back one step without validating anything.
func (s *OnboardingService) Previous(ctx context.Context) (*domain.Draft, error) {
	p, err := s.pending(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	if d.CurrentStep <= domain.StepTenant {
		return d, nil
	}
	d.CurrentStep--
	return s.stores.Drafts.Save(ctx, d)
}

// Complete writes tenant, profile and settings from the draft and drops the
// draft, all in one transaction. The preferences step must have been saved.
func (s *OnboardingService) Complete(ctx context.Context) (*domain.Result, error) {
	p, err := s.pending(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.stores.Drafts.Get(ctx, p.ID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if d == nil || d.Data.Preferences == nil || d.Data.Tenant == nil || d.Data.User == nil {
		return nil, errors.BadRequest("").WithMessageKey("errors.onboarding_incomplete", nil)
	}

	data := d.Data
	res := &domain.Result{NextStep: NextStepDashboard}
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if res.Tenant, err = s.stores.Tenants.Update(ctx, p.TenantID, tenantUpdate(data)); err != nil {
			return err
		}
		if res.Profile, err = s.stores.Profiles.CompleteOnboarding(ctx, p.TenantID, p.ID, profileUpdate(data.User)); err != nil {
			return err
		}
		if res.Settings, err = s.stores.Settings.Upsert(ctx, settingsInput(data.Preferences)); err != nil {
			return err
		}
		if err := s.stores.Drafts.Delete(ctx, p.ID); err != nil {
			return err
		}
		return s.audit.Record(ctx, accountdomain.AuditEntry{
			TenantID:     p.TenantID,
			Action:       accountdomain.ActionOnboardingCompleted,
			ResourceType: "tenant",
			ResourceID:   p.TenantID,
			Details:      map[string]any{"tenant_name": res.Tenant.Name},
		})
	})
	if err != nil {
		s.logger.Error().Err(err).Str("profile_id", p.ID).Msg("onboarding completion rolled back")
		return nil, err
	}

	s.logger.Info().Str("profile_id", p.ID).Str("tenant_id", p.TenantID).Msg("onboarding completed")
	s.publishCompleted(ctx, res, data.Preferences.Language)
	return res, nil
}

func (s *OnboardingService) publishCompleted(ctx context.Context, res *domain.Result, locale string) {
	err := s.publisher.Publish(ctx, messaging.EventOnboardingCompleted, messaging.OnboardingCompletedEvent{
		TenantID:   res.Tenant.ID,
		TenantName: res.Tenant.Name,
		ProfileID:  res.Profile.ID,
		Email:      res.Profile.Email,
		FirstName:  res.Profile.FirstName,
		Locale:     locale,
	})
	s.metrics.ObservePublish(messaging.EventOnboardingCompleted, err)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", messaging.EventOnboardingCompleted).Msg("failed to publish event")
	}
}

func tenantUpdate(data domain.DraftData) *accountdomain.UpdateTenantRequest {
	name := data.Tenant.Name
	req := &accountdomain.UpdateTenantRequest{
		Name:     &name,
		Industry: data.Tenant.Industry,
		Size:     data.Tenant.Size,
	}
	if c := data.Company; c != nil {
		req.Website, req.Phone, req.Address, req.Description = c.Website, c.Phone, c.Address, c.Description
	}
	return req
}

func profileUpdate(u *domain.UserStep) *accountdomain.UpdateProfileRequest {
	first, last := u.FirstName, u.LastName
	return &accountdomain.UpdateProfileRequest{
		FirstName: &first,
		LastName:  &last,
		JobTitle:  u.JobTitle,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
	}
}

func settingsInput(p *domain.PreferencesStep) *crmdomain.SettingsInput {
	in := &crmdomain.SettingsInput{
		Theme:              &p.Theme,
		EmailNotifications: &p.EmailNotifications,
		DataSharing:        &p.DataSharing,
		AutoSave:           &p.AutoSave,
	}
	if p.Language != "" {
		in.Language = &p.Language
	}
	if p.Timezone != "" {
		in.Timezone = &p.Timezone
	}
	if p.DateFormat != "" {
		in.DateFormat = &p.DateFormat
	}
	return in
}
