package services

import (
	"context"
	"testing"
	"time"

	"beacon-guardian/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putSilentElder(h *harness, id string, silentFor time.Duration) {
	h.mem.PutElder(models.Elder{
		ID:         id,
		TenantID:   "t1",
		Name:       "Uncle " + id,
		MacAddress: "11:22:33:44:55:" + id[len(id)-2:],
		Status:     models.ElderActive,
		LastSeen:   testNow.Add(-silentFor),
	})
}

func TestSweep_FlagsSilentElder(t *testing.T) {
	h := newHarness(t)
	putSilentElder(h, "x-01", 13*time.Hour)

	report, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.AlertsRaised)

	alerts := h.mem.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "x-01", alerts[0].ElderID)
	assert.Equal(t, models.AlertInactivity, alerts[0].AlertType)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, "No activity signal from Uncle x-01 for more than 13 hours", alerts[0].Message)
	assert.Equal(t, models.ElderOffline, h.elder(t, "x-01").Status)
	assert.Equal(t, []models.AlertType{models.AlertInactivity}, h.notifier.alertTypes())
}

func TestSweep_DoesNotDuplicateOpenAlerts(t *testing.T) {
	h := newHarness(t)
	putSilentElder(h, "x-01", 13*time.Hour)
	ctx := context.Background()

	_, err := h.sweeper.Run(ctx)
	require.NoError(t, err)
	// Put the elder back to active so the second run re-evaluates it.
	require.NoError(t, h.mem.SetElderStatus(ctx, "x-01", models.ElderActive))
	report, err := h.sweeper.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.AlertsRaised)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, h.mem.Alerts(), 1)
	assert.Len(t, h.notifier.alertTypes(), 1)
}

func TestSweep_AcknowledgedAlertStillBlocks(t *testing.T) {
	h := newHarness(t)
	putSilentElder(h, "x-01", 20*time.Hour)
	h.mem.PutAlert(models.Alert{ID: "a0", TenantID: "t1", ElderID: "x-01", AlertType: models.AlertInactivity, Status: models.AlertAcknowledged})

	report, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.AlertsRaised)
	assert.Empty(t, h.notifier.alertTypes())
}

func TestSweep_ResolvedAlertDoesNotBlock(t *testing.T) {
	h := newHarness(t)
	putSilentElder(h, "x-01", 20*time.Hour)
	h.mem.PutAlert(models.Alert{ID: "a0", TenantID: "t1", ElderID: "x-01", AlertType: models.AlertInactivity, Status: models.AlertResolved})
	h.mem.PutAlert(models.Alert{ID: "a1", TenantID: "t1", ElderID: "x-01", AlertType: models.AlertEmergency, Status: models.AlertPending})

	report, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.AlertsRaised)
}

func TestSweep_ThresholdIsStrict(t *testing.T) {
	h := newHarness(t)
	putSilentElder(h, "x-01", 12*time.Hour)
	putSilentElder(h, "x-02", 12*time.Hour+time.Second)

	_, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)

	alerts := h.mem.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "x-02", alerts[0].ElderID)
	assert.Equal(t, models.ElderActive, h.elder(t, "x-01").Status)
}

func TestSweep_UsesTenantThresholdWithDefault(t *testing.T) {
	h := newHarness(t)
	h.mem.PutTenant(models.Tenant{ID: "t2", SubscriptionStatus: models.SubscriptionActive, EnableInactivityAlert: true, AlertThresholdHours: 0})
	h.mem.PutTenant(models.Tenant{ID: "t3", SubscriptionStatus: models.SubscriptionActive, EnableInactivityAlert: true, AlertThresholdHours: 2})
	h.mem.PutElder(models.Elder{ID: "d-11", TenantID: "t2", Status: models.ElderActive, LastSeen: testNow.Add(-11 * time.Hour)})
	h.mem.PutElder(models.Elder{ID: "d-12", TenantID: "t2", Status: models.ElderActive, LastSeen: testNow.Add(-(12*time.Hour + time.Second))})
	h.mem.PutElder(models.Elder{ID: "s-03", TenantID: "t3", Status: models.ElderActive, LastSeen: testNow.Add(-3 * time.Hour)})

	_, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)

	flagged := []string{}
	for _, alert := range h.mem.Alerts() {
		flagged = append(flagged, alert.ElderID)
	}
	assert.ElementsMatch(t, []string{"d-12", "s-03"}, flagged)
	assert.Equal(t, models.ElderActive, h.elder(t, "d-11").Status)
}

func TestSweep_ElderFailuresDoNotStopLaterElders(t *testing.T) {
	h := newHarness(t)
	putSilentElder(h, "x-01", 20*time.Hour)
	putSilentElder(h, "x-02", 16*time.Hour)
	putSilentElder(h, "x-03", 14*time.Hour)
	h.withFaults(map[string]string{"CreateAlert": "x-01", "FindOpenAlert": "x-02"})

	report, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.EldersChecked)
	assert.Equal(t, 1, report.AlertsRaised)
	assert.Equal(t, 2, report.Failures)

	alerts := h.mem.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "x-03", alerts[0].ElderID)
	assert.Equal(t, models.ElderActive, h.elder(t, "x-01").Status)
	assert.Equal(t, models.ElderActive, h.elder(t, "x-02").Status)
	assert.Equal(t, models.ElderOffline, h.elder(t, "x-03").Status)
	assert.Equal(t, []models.AlertType{models.AlertInactivity}, h.notifier.alertTypes())
}

func TestSweep_StatusFailureStillAlertsAndContinues(t *testing.T) {
	h := newHarness(t)
	putSilentElder(h, "x-01", 20*time.Hour)
	putSilentElder(h, "x-02", 16*time.Hour)
	h.withFaults(map[string]string{"SetElderStatus": "x-01"})

	report, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.AlertsRaised)
	assert.Equal(t, 1, report.Failures)

	assert.Len(t, h.mem.Alerts(), 2)
	assert.Equal(t, models.ElderActive, h.elder(t, "x-01").Status)
	assert.Equal(t, models.ElderOffline, h.elder(t, "x-02").Status)
}

func TestSweep_SkipsDisabledAndInactiveTenants(t *testing.T) {
	h := newHarness(t)
	h.mem.PutTenant(models.Tenant{ID: "off", SubscriptionStatus: models.SubscriptionActive, EnableInactivityAlert: false})
	h.mem.PutTenant(models.Tenant{ID: "late", SubscriptionStatus: models.SubscriptionSuspended, EnableInactivityAlert: true})
	h.mem.PutElder(models.Elder{ID: "o-1", TenantID: "off", Status: models.ElderActive, LastSeen: testNow.Add(-48 * time.Hour)})
	h.mem.PutElder(models.Elder{ID: "l-1", TenantID: "late", Status: models.ElderActive, LastSeen: testNow.Add(-48 * time.Hour)})

	report, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.TenantsScanned)
	assert.Empty(t, h.mem.Alerts())
}

func TestSweep_IgnoresNonActiveElders(t *testing.T) {
	h := newHarness(t)
	h.mem.PutElder(models.Elder{ID: "gone", TenantID: "t1", Status: models.ElderOffline, LastSeen: testNow.Add(-48 * time.Hour)})

	_, err := h.sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, h.mem.Alerts())
}
