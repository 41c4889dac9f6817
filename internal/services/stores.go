package services

import (
	"context"
	"time"

	"beacon-guardian/internal/models"
)

// The interfaces below are the only storage surface the core uses. Every method is a
// single-document read or write; lookups return nil (and no error) when nothing matches.

type TenantStore interface {
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	ListActiveTenants(ctx context.Context) ([]models.Tenant, error)
}

type ElderStore interface {
	FindElderByMac(ctx context.Context, macAddress string) (*models.Elder, error)
	GetElder(ctx context.Context, elderID string) (*models.Elder, error)
	ListEldersByStatus(ctx context.Context, tenantID string, status models.ElderStatus) ([]models.Elder, error)
	RecordElderSignal(ctx context.Context, elderID string, seenAt time.Time, rssi int, gatewayID string) error
	SetElderStatus(ctx context.Context, elderID string, status models.ElderStatus) error
}

type GatewayStore interface {
	FindGateway(ctx context.Context, tenantID, serialNumber string) (*models.Gateway, error)
	TouchGateway(ctx context.Context, gatewayID string, at time.Time) error
}

type DeviceStore interface {
	UpdateDeviceBattery(ctx context.Context, deviceID string, level int, at time.Time) error
}

type SignalLogStore interface {
	AppendSignalLog(ctx context.Context, entry *models.SignalLog) error
	AppendLocationLog(ctx context.Context, entry *models.LocationLog) error
	// HasSignalSince reports whether the elder has a signal at or after since, ignoring excludeID.
	HasSignalSince(ctx context.Context, elderID string, since time.Time, excludeID string) (bool, error)
}

type AlertStore interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, alertID string) (*models.Alert, error)
	ListAlerts(ctx context.Context, tenantID string, status models.AlertStatus, limit int) ([]models.Alert, error)
	FindOpenAlert(ctx context.Context, elderID string, alertType models.AlertType, statuses []models.AlertStatus) (*models.Alert, error)
	// MarkLatestNotified flips notification_sent on the newest unnotified alert of the type.
	MarkLatestNotified(ctx context.Context, elderID string, alertType models.AlertType, at time.Time) (bool, error)
	// UpdateAlertStatus persists a status change only if the stored status still equals from.
	UpdateAlertStatus(ctx context.Context, alert *models.Alert, from models.AlertStatus) (bool, error)
}
