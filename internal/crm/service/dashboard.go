package service

import (
	"context"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
)

// DashboardService aggregates pipeline numbers for the dashboard.
type DashboardService struct {
	leads      LeadStore
	contacts   ContactStore
	activities ActivityStore
	clock      clock.Clock
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(leads LeadStore, contacts ContactStore, activities ActivityStore, clk clock.Clock) *DashboardService {
	return &DashboardService{leads: leads, contacts: contacts, activities: activities, clock: clk}
}

// Stats returns lead counts per status, the open pipeline value (everything
// not lost), the qualified share of all leads and record counts.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	if _, err := authorize(ctx, permissions.DashboardRead); err != nil {
		return nil, err
	}

	var (
		counts    []domain.StatusCount
		contacts  int64
		open, due int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.leads.StatusCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		contacts, err = s.contacts.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		open, due, err = s.activities.OpenCounts(gctx, s.clock.Now())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &domain.DashboardStats{
		LeadsByStatus:    make(map[domain.LeadStatus]int64, len(domain.LeadStatuses)),
		TotalContacts:    contacts,
		OpenActivities:   open,
		ActivitiesDueNow: due,
	}
	for _, st := range domain.LeadStatuses {
		stats.LeadsByStatus[st] = 0
	}
	for _, c := range counts {
		stats.LeadsByStatus[c.Status] += c.Count
		stats.TotalLeads += c.Count
		if c.Status != domain.LeadLost {
			stats.PipelineValue += c.Value
		}
	}
	if stats.TotalLeads > 0 {
		stats.ConversionRate = float64(stats.LeadsByStatus[domain.LeadQualified]) / float64(stats.TotalLeads)
	}
	return stats, nil
}
