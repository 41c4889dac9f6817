package models

import (
	"errors"
	"strings"
	"time"
)

type AlertType string

const (
	AlertEmergency     AlertType = "emergency"
	AlertInactivity    AlertType = "inactivity"
	AlertLowBattery    AlertType = "low_battery"
	AlertDeviceOffline AlertType = "device_offline"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertEmergency, AlertInactivity, AlertLowBattery, AlertDeviceOffline:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AlertStatus string

const (
	AlertPending      AlertStatus = "pending"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// OpenAlertStatuses are the states an alert can be in before it is resolved.
var OpenAlertStatuses = []AlertStatus{AlertPending, AlertAcknowledged}

var ErrInvalidTransition = errors.New("invalid alert status transition")

// CanTransitionTo reports whether next is a legal forward move from s.
// pending -> acknowledged -> resolved, pending -> resolved; resolved is terminal.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch s {
	case AlertPending:
		return next == AlertAcknowledged || next == AlertResolved
	case AlertAcknowledged:
		return next == AlertResolved
	}
	return false
}

func (s AlertStatus) Open() bool {
	return s == AlertPending || s == AlertAcknowledged
}

type Alert struct {
	ID                 string      `db:"id" json:"id"`
	TenantID           string      `db:"tenant_id" json:"tenantId"`
	ElderID            string      `db:"elder_id" json:"elderId"`
	ElderName          string      `db:"elder_name" json:"elderName"`
	AlertType          AlertType   `db:"alert_type" json:"alertType"`
	Severity           Severity    `db:"severity" json:"severity"`
	Message            string      `db:"message" json:"message"`
	Status             AlertStatus `db:"status" json:"status"`
	AcknowledgedBy     *string     `db:"acknowledged_by" json:"acknowledgedBy,omitempty"`
	AcknowledgedAt     *time.Time  `db:"acknowledged_at" json:"acknowledgedAt,omitempty"`
	ResolvedAt         *time.Time  `db:"resolved_at" json:"resolvedAt,omitempty"`
	NotificationSent   bool        `db:"notification_sent" json:"notificationSent"`
	NotificationSentAt *time.Time  `db:"notification_sent_at" json:"notificationSentAt,omitempty"`
	CreatedAt          time.Time   `db:"created_at" json:"createdAt"`
}

// Acknowledge moves a pending alert to acknowledged, recording who did it.
func (a *Alert) Acknowledge(by string, at time.Time) error {
	by = strings.TrimSpace(by)
	if by == "" {
		return errors.New("acknowledger identity is required")
	}
	if !a.Status.CanTransitionTo(AlertAcknowledged) {
		return ErrInvalidTransition
	}
	a.Status = AlertAcknowledged
	a.AcknowledgedBy = &by
	a.AcknowledgedAt = &at
	return nil
}

// Resolve closes the alert from either open state.
func (a *Alert) Resolve(at time.Time) error {
	if !a.Status.CanTransitionTo(AlertResolved) {
		return ErrInvalidTransition
	}
	a.Status = AlertResolved
	a.ResolvedAt = &at
	return nil
}
