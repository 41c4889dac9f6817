package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"beacon-guardian/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxAlertListSize = 100

// AlertService creates alerts and applies the status state machine to them.
type AlertService struct {
	Store     AlertStore
	Publisher AlertPublisher
	Now       func() time.Time
	Logger    *zap.Logger
}

func NewAlertService(store AlertStore, publisher AlertPublisher, logger *zap.Logger) *AlertService {
	return &AlertService{Store: store, Publisher: publisher, Now: time.Now, Logger: logger}
}

// Raise stores a new pending alert. Event-triggered rules call it unconditionally;
// it performs no dedup of its own.
func (s *AlertService) Raise(ctx context.Context, elder *models.Elder, alertType models.AlertType, severity models.Severity, message string) (*models.Alert, error) {
	alert := &models.Alert{
		ID:        uuid.NewString(),
		TenantID:  elder.TenantID,
		ElderID:   elder.ID,
		ElderName: elder.Name,
		AlertType: alertType,
		Severity:  severity,
		Message:   message,
		Status:    models.AlertPending,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.Store.CreateAlert(ctx, alert); err != nil {
		return nil, WrapError(err, "create alert")
	}
	s.Logger.Info("Alert created",
		zap.String("alert_id", alert.ID),
		zap.String("elder_id", alert.ElderID),
		zap.String("alert_type", string(alertType)),
		zap.String("severity", string(severity)),
	)
	if s.Publisher != nil {
		s.Publisher.PublishAlert(*alert)
	}
	return alert, nil
}

// HasOpenAlert reports whether the elder already has a pending or acknowledged alert of the type.
func (s *AlertService) HasOpenAlert(ctx context.Context, elderID string, alertType models.AlertType) (bool, error) {
	existing, err := s.Store.FindOpenAlert(ctx, elderID, alertType, models.OpenAlertStatuses)
	if err != nil {
		return false, WrapError(err, "find open alert")
	}
	return existing != nil, nil
}

func (s *AlertService) List(ctx context.Context, tenantID, status string) ([]models.Alert, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, ErrBadRequest("MISSING_TENANT_ID", "tenantId is required")
	}
	filter := models.AlertStatus(strings.TrimSpace(status))
	if filter != "" && filter != models.AlertPending && filter != models.AlertAcknowledged && filter != models.AlertResolved {
		return nil, ErrBadRequest("INVALID_STATUS", "status must be one of pending, acknowledged, resolved")
	}
	return s.Store.ListAlerts(ctx, tenantID, filter, maxAlertListSize)
}

func (s *AlertService) Acknowledge(ctx context.Context, alertID, acknowledgedBy string) (*models.Alert, error) {
	if strings.TrimSpace(acknowledgedBy) == "" {
		return nil, ErrBadRequest("MISSING_ACKNOWLEDGED_BY", "acknowledgedBy is required")
	}
	return s.transition(ctx, alertID, func(alert *models.Alert, now time.Time) error {
		return alert.Acknowledge(acknowledgedBy, now)
	})
}

func (s *AlertService) Resolve(ctx context.Context, alertID string) (*models.Alert, error) {
	return s.transition(ctx, alertID, func(alert *models.Alert, now time.Time) error {
		return alert.Resolve(now)
	})
}

func (s *AlertService) transition(ctx context.Context, alertID string, apply func(*models.Alert, time.Time) error) (*models.Alert, error) {
	if strings.TrimSpace(alertID) == "" {
		return nil, ErrBadRequest("MISSING_ALERT_ID", "alert id is required")
	}
	alert, err := s.Store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, WrapError(err, "load alert")
	}
	if alert == nil {
		return nil, ErrNotFound("ALERT_NOT_FOUND", "Alert not found")
	}
	from := alert.Status
	if err := apply(alert, s.Now().UTC()); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return nil, ErrConflict("INVALID_TRANSITION", "Alert cannot move from "+string(from))
		}
		return nil, ErrBadRequest("INVALID_TRANSITION", err.Error())
	}
	updated, err := s.Store.UpdateAlertStatus(ctx, alert, from)
	if err != nil {
		return nil, WrapError(err, "update alert status")
	}
	if !updated {
		return nil, ErrConflict("INVALID_TRANSITION", "Alert was changed by someone else")
	}
	s.Logger.Info("Alert status changed",
		zap.String("alert_id", alert.ID),
		zap.String("from", string(from)),
		zap.String("to", string(alert.Status)),
	)
	return alert, nil
}
