package services

import (
	"context"
	"time"

	"beacon-guardian/internal/models"

	"go.uber.org/zap"
)

type SweepReport struct {
	TenantsScanned int `json:"tenantsScanned"`
	EldersChecked  int `json:"eldersChecked"`
	AlertsRaised   int `json:"alertsRaised"`
	Skipped        int `json:"skipped"`
	Failures       int `json:"failures"`
}

// Sweeper flags active elders that have been silent beyond their tenant's threshold.
// It assumes at most one run at a time; overlapping runs may both pass the open-alert check.
type Sweeper struct {
	Tenants  TenantStore
	Elders   ElderStore
	Alerts   *AlertService
	Notifier Notifier
	Messages *Messages
	Now      func() time.Time
	Logger   *zap.Logger
}

// Run only fails when the tenant list itself cannot be read. Per-tenant and
// per-elder failures are logged and counted.
func (s *Sweeper) Run(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	tenants, err := s.Tenants.ListActiveTenants(ctx)
	if err != nil {
		return report, WrapError(err, "list active tenants")
	}
	now := s.Now()
	for i := range tenants {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		tenant := &tenants[i]
		if !tenant.EnableInactivityAlert {
			continue
		}
		report.TenantsScanned++
		if err := s.sweepTenant(ctx, tenant, now, &report); err != nil {
			report.Failures++
			s.Logger.Error("Inactivity sweep failed for tenant", zap.String("tenant_id", tenant.ID), zap.Error(err))
		}
	}
	s.Logger.Info("Inactivity sweep finished",
		zap.Int("tenants", report.TenantsScanned),
		zap.Int("elders", report.EldersChecked),
		zap.Int("alerts", report.AlertsRaised),
		zap.Int("skipped", report.Skipped),
		zap.Int("failures", report.Failures),
	)
	return report, nil
}

func (s *Sweeper) sweepTenant(ctx context.Context, tenant *models.Tenant, now time.Time, report *SweepReport) error {
	threshold := now.Add(-time.Duration(tenant.ThresholdHours()) * time.Hour)
	elders, err := s.Elders.ListEldersByStatus(ctx, tenant.ID, models.ElderActive)
	if err != nil {
		return WrapError(err, "list active elders")
	}
	for i := range elders {
		elder := &elders[i]
		report.EldersChecked++
		if !elder.LastSeen.Before(threshold) {
			continue
		}
		log := s.Logger.With(zap.String("tenant_id", tenant.ID), zap.String("elder_id", elder.ID))
		open, err := s.Alerts.HasOpenAlert(ctx, elder.ID, models.AlertInactivity)
		if err != nil {
			report.Failures++
			log.Error("Failed to check open inactivity alert", zap.Error(err))
			continue
		}
		if open {
			report.Skipped++
			continue
		}
		hours := int(now.Sub(elder.LastSeen) / time.Hour)
		if _, err := s.Alerts.Raise(ctx, elder, models.AlertInactivity, models.SeverityHigh, s.Messages.InactivityAlert(elder.Name, hours)); err != nil {
			report.Failures++
			log.Error("Failed to raise inactivity alert", zap.Error(err))
			continue
		}
		report.AlertsRaised++
		s.Notifier.NotifyAlert(ctx, tenant.ID, elder.ID, models.AlertInactivity)
		if err := s.Elders.SetElderStatus(ctx, elder.ID, models.ElderOffline); err != nil {
			report.Failures++
			log.Error("Failed to mark elder offline", zap.Error(err))
			continue
		}
		log.Info("Inactivity alert raised", zap.Int("hours_silent", hours))
	}
	return nil
}
