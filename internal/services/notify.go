package services

import (
	"context"
	"strings"
	"time"

	"beacon-guardian/internal/models"

	"go.uber.org/zap"
)

// FirstSignalType is the synthetic type the test endpoint uses for the first-activity message.
const FirstSignalType = "first_signal"

// Notifier delivers human-readable notifications. Implementations never report failure.
type Notifier interface {
	NotifyAlert(ctx context.Context, tenantID, elderID string, alertType models.AlertType)
	NotifyFirstSignal(ctx context.Context, tenantID, elderID, location string)
}

// Dispatcher composes messages and broadcasts them through the tenant's channel.
type Dispatcher struct {
	Tenants     TenantStore
	Elders      ElderStore
	Alerts      AlertStore
	Sender      MessageSender
	Messages    *Messages
	LiffBaseURL string
	Now         func() time.Time
	Logger      *zap.Logger
}

func NewDispatcher(tenants TenantStore, elders ElderStore, alerts AlertStore, sender MessageSender, messages *Messages, liffBaseURL string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		Tenants:     tenants,
		Elders:      elders,
		Alerts:      alerts,
		Sender:      sender,
		Messages:    messages,
		LiffBaseURL: liffBaseURL,
		Now:         time.Now,
		Logger:      logger,
	}
}

func (d *Dispatcher) NotifyAlert(ctx context.Context, tenantID, elderID string, alertType models.AlertType) {
	log := d.Logger.With(
		zap.String("tenant_id", tenantID),
		zap.String("elder_id", elderID),
		zap.String("alert_type", string(alertType)),
	)
	tenant, elder, ok := d.resolve(ctx, tenantID, elderID, log)
	if !ok {
		return
	}
	now := d.Now()
	msg := OutboundMessage{
		Text:        d.Messages.AlertNotification(elder, alertType, now),
		AltText:     d.Messages.ActionLabel(),
		Prompt:      d.Messages.AlertActionPrompt(),
		ActionLabel: d.Messages.ActionLabel(),
		ActionURI:   ElderDeepLink(d.LiffBaseURL, tenant.LiffID, elderID),
	}
	if err := d.Sender.Broadcast(ctx, channelOf(tenant), msg); err != nil {
		log.Warn("Failed to send alert notification", zap.Error(err))
	} else {
		log.Info("Alert notification sent")
	}

	// The flag records that delivery was attempted.
	marked, err := d.Alerts.MarkLatestNotified(ctx, elderID, alertType, now.UTC())
	if err != nil {
		log.Error("Failed to mark alert notified", zap.Error(err))
		return
	}
	if !marked {
		log.Debug("No unnotified alert to mark")
	}
}

func (d *Dispatcher) NotifyFirstSignal(ctx context.Context, tenantID, elderID, location string) {
	log := d.Logger.With(zap.String("tenant_id", tenantID), zap.String("elder_id", elderID))
	tenant, elder, ok := d.resolve(ctx, tenantID, elderID, log)
	if !ok {
		return
	}
	msg := OutboundMessage{
		Text:        d.Messages.FirstSignalNotification(elder.Name, d.Now(), location),
		AltText:     d.Messages.ActionLabel(),
		Prompt:      d.Messages.FirstSignalActionPrompt(),
		ActionLabel: d.Messages.ActionLabel(),
		ActionURI:   ElderDeepLink(d.LiffBaseURL, tenant.LiffID, elderID),
	}
	if err := d.Sender.Broadcast(ctx, channelOf(tenant), msg); err != nil {
		log.Warn("Failed to send first signal notification", zap.Error(err))
		return
	}
	log.Info("First signal notification sent", zap.String("location", location))
}

// SendTest validates a test request and routes it to the matching notification path.
func (d *Dispatcher) SendTest(ctx context.Context, tenantID, elderID, alertType string) error {
	tenantID = strings.TrimSpace(tenantID)
	elderID = strings.TrimSpace(elderID)
	alertType = strings.TrimSpace(alertType)
	if tenantID == "" || elderID == "" || alertType == "" {
		return ErrBadRequest("MISSING_FIELDS", "Missing required fields: tenantId, elderId, alertType")
	}
	if alertType != FirstSignalType && !models.AlertType(alertType).Valid() {
		return ErrBadRequest("INVALID_ALERT_TYPE", "Invalid alert type. Must be one of: emergency, inactivity, low_battery, device_offline, first_signal")
	}
	tenant, err := d.Tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return WrapError(err, "load tenant")
	}
	if tenant == nil {
		return ErrNotFound("TENANT_NOT_FOUND", "Tenant not found")
	}
	elder, err := d.Elders.GetElder(ctx, elderID)
	if err != nil {
		return WrapError(err, "load elder")
	}
	if elder == nil || elder.TenantID != tenantID {
		return ErrNotFound("ELDER_NOT_FOUND", "Elder not found")
	}

	d.Logger.Info("Sending test notification",
		zap.String("tenant_id", tenantID),
		zap.String("elder_id", elderID),
		zap.String("alert_type", alertType),
	)
	if alertType == FirstSignalType {
		d.NotifyFirstSignal(ctx, tenantID, elderID, "")
		return nil
	}
	d.NotifyAlert(ctx, tenantID, elderID, models.AlertType(alertType))
	return nil
}

func (d *Dispatcher) resolve(ctx context.Context, tenantID, elderID string, log *zap.Logger) (*models.Tenant, *models.Elder, bool) {
	tenant, err := d.Tenants.GetTenant(ctx, tenantID)
	if err != nil {
		log.Error("Failed to load tenant for notification", zap.Error(err))
		return nil, nil, false
	}
	elder, err := d.Elders.GetElder(ctx, elderID)
	if err != nil {
		log.Error("Failed to load elder for notification", zap.Error(err))
		return nil, nil, false
	}
	if tenant == nil || elder == nil {
		log.Error("Tenant or elder not found for notification")
		return nil, nil, false
	}
	return tenant, elder, true
}

func channelOf(tenant *models.Tenant) Channel {
	return Channel{AccessToken: tenant.LineChannelAccessToken, LiffID: tenant.LiffID}
}
