package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"beacon-guardian/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Postgres implements every storage interface the services use on top of sqlx.
type Postgres struct {
	DB *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{DB: db}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

const tenantColumns = `id, name, line_channel_access_token, line_channel_secret, liff_id, admin_line_ids,
       subscription_plan, subscription_start, subscription_end, subscription_status,
       alert_threshold_hours, enable_emergency_alert, enable_inactivity_alert, created_at, updated_at`

func (p *Postgres) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := p.DB.GetContext(ctx, &tenant, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (p *Postgres) ListActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	tenants := []models.Tenant{}
	err := p.DB.SelectContext(ctx, &tenants, `
SELECT `+tenantColumns+`
FROM tenants
WHERE subscription_status = $1
ORDER BY created_at
`, models.SubscriptionActive)
	return tenants, err
}

const elderColumns = `id, tenant_id, name, age, gender, address, contact_phone, emergency_contact, emergency_phone,
       mac_address, device_id, status, last_seen, last_signal_rssi, last_gateway_id, notes, created_at, updated_at`

// FindElderByMac ignores case and the ':'/'-' separator and, should duplicates exist, picks the oldest record.
func (p *Postgres) FindElderByMac(ctx context.Context, macAddress string) (*models.Elder, error) {
	var elder models.Elder
	err := p.DB.GetContext(ctx, &elder, `
SELECT `+elderColumns+`
FROM elders
WHERE replace(upper(mac_address), '-', ':') = $1
ORDER BY created_at
LIMIT 1
`, models.NormalizeMacAddress(macAddress))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &elder, nil
}

func (p *Postgres) GetElder(ctx context.Context, elderID string) (*models.Elder, error) {
	var elder models.Elder
	err := p.DB.GetContext(ctx, &elder, `SELECT `+elderColumns+` FROM elders WHERE id = $1`, elderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &elder, nil
}

func (p *Postgres) ListEldersByStatus(ctx context.Context, tenantID string, status models.ElderStatus) ([]models.Elder, error) {
	elders := []models.Elder{}
	err := p.DB.SelectContext(ctx, &elders, `
SELECT `+elderColumns+`
FROM elders
WHERE tenant_id = $1 AND status = $2
ORDER BY last_seen
`, tenantID, status)
	return elders, err
}

func (p *Postgres) RecordElderSignal(ctx context.Context, elderID string, seenAt time.Time, rssi int, gatewayID string) error {
	_, err := p.DB.ExecContext(ctx, `
UPDATE elders
SET last_seen = $2, last_signal_rssi = $3, last_gateway_id = $4, status = $5, updated_at = now()
WHERE id = $1
`, elderID, seenAt, rssi, gatewayID, models.ElderActive)
	return err
}

func (p *Postgres) SetElderStatus(ctx context.Context, elderID string, status models.ElderStatus) error {
	_, err := p.DB.ExecContext(ctx, `UPDATE elders SET status = $2, updated_at = now() WHERE id = $1`, elderID, status)
	return err
}

func (p *Postgres) FindGateway(ctx context.Context, tenantID, serialNumber string) (*models.Gateway, error) {
	var gateway models.Gateway
	err := p.DB.GetContext(ctx, &gateway, `
SELECT id, tenant_id, serial_number, gateway_number, location, is_boundary, status, last_seen, created_at, updated_at
FROM gateways
WHERE tenant_id = $1 AND serial_number = $2
ORDER BY created_at
LIMIT 1
`, tenantID, serialNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gateway, nil
}

func (p *Postgres) TouchGateway(ctx context.Context, gatewayID string, at time.Time) error {
	_, err := p.DB.ExecContext(ctx, `UPDATE gateways SET last_seen = $2, updated_at = now() WHERE id = $1`, gatewayID, at)
	return err
}

func (p *Postgres) UpdateDeviceBattery(ctx context.Context, deviceID string, level int, at time.Time) error {
	_, err := p.DB.ExecContext(ctx, `
UPDATE devices
SET last_battery_level = $2, last_battery_update = $3, updated_at = now()
WHERE id = $1
`, deviceID, level, at)
	return err
}

func (p *Postgres) AppendSignalLog(ctx context.Context, entry *models.SignalLog) error {
	metadata := string(entry.Metadata)
	if metadata == "" {
		metadata = "{}"
	}
	_, err := p.DB.ExecContext(ctx, `
INSERT INTO signal_logs (id, tenant_id, elder_id, mac_address, rssi, gateway_id, signal_type, observed_at, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10)
`, entry.ID, entry.TenantID, entry.ElderID, entry.MacAddress, entry.Rssi, entry.GatewayID,
		entry.SignalType, entry.Timestamp, metadata, entry.CreatedAt)
	return err
}

func (p *Postgres) AppendLocationLog(ctx context.Context, entry *models.LocationLog) error {
	_, err := p.DB.ExecContext(ctx, `
INSERT INTO location_logs (id, tenant_id, elder_id, elder_name, mac_address, gateway_id, gateway_number,
                           location, is_boundary, rssi, observed_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`, entry.ID, entry.TenantID, entry.ElderID, entry.ElderName, entry.MacAddress, entry.GatewayID,
		entry.GatewayNumber, entry.Location, entry.IsBoundary, entry.Rssi, entry.Timestamp, entry.CreatedAt)
	return err
}

func (p *Postgres) HasSignalSince(ctx context.Context, elderID string, since time.Time, excludeID string) (bool, error) {
	var exists bool
	err := p.DB.GetContext(ctx, &exists, `
SELECT EXISTS(
  SELECT 1 FROM signal_logs WHERE elder_id = $1 AND observed_at >= $2 AND id <> $3
)
`, elderID, since, excludeID)
	return exists, err
}

const alertColumns = `id, tenant_id, elder_id, elder_name, alert_type, severity, message, status,
       acknowledged_by, acknowledged_at, resolved_at, notification_sent, notification_sent_at, created_at`

func (p *Postgres) CreateAlert(ctx context.Context, alert *models.Alert) error {
	_, err := p.DB.NamedExecContext(ctx, `
INSERT INTO alerts (id, tenant_id, elder_id, elder_name, alert_type, severity, message, status,
                    acknowledged_by, acknowledged_at, resolved_at, notification_sent, notification_sent_at, created_at)
VALUES (:id, :tenant_id, :elder_id, :elder_name, :alert_type, :severity, :message, :status,
        :acknowledged_by, :acknowledged_at, :resolved_at, :notification_sent, :notification_sent_at, :created_at)
`, alert)
	return err
}

func (p *Postgres) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	var alert models.Alert
	err := p.DB.GetContext(ctx, &alert, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, alertID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (p *Postgres) ListAlerts(ctx context.Context, tenantID string, status models.AlertStatus, limit int) ([]models.Alert, error) {
	alerts := []models.Alert{}
	if status == "" {
		err := p.DB.SelectContext(ctx, &alerts, `
SELECT `+alertColumns+`
FROM alerts
WHERE tenant_id = $1
ORDER BY created_at DESC
LIMIT $2
`, tenantID, limit)
		return alerts, err
	}
	err := p.DB.SelectContext(ctx, &alerts, `
SELECT `+alertColumns+`
FROM alerts
WHERE tenant_id = $1 AND status = $2
ORDER BY created_at DESC
LIMIT $3
`, tenantID, status, limit)
	return alerts, err
}

func (p *Postgres) FindOpenAlert(ctx context.Context, elderID string, alertType models.AlertType, statuses []models.AlertStatus) (*models.Alert, error) {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	var alert models.Alert
	err := p.DB.GetContext(ctx, &alert, `
SELECT `+alertColumns+`
FROM alerts
WHERE elder_id = $1 AND alert_type = $2 AND status = ANY($3)
ORDER BY created_at DESC
LIMIT 1
`, elderID, alertType, pq.Array(values))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (p *Postgres) MarkLatestNotified(ctx context.Context, elderID string, alertType models.AlertType, at time.Time) (bool, error) {
	res, err := p.DB.ExecContext(ctx, `
UPDATE alerts
SET notification_sent = TRUE, notification_sent_at = $3
WHERE id = (
  SELECT id FROM alerts
  WHERE elder_id = $1 AND alert_type = $2 AND notification_sent = FALSE
  ORDER BY created_at DESC
  LIMIT 1
)
`, elderID, alertType, at)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (p *Postgres) UpdateAlertStatus(ctx context.Context, alert *models.Alert, from models.AlertStatus) (bool, error) {
	res, err := p.DB.ExecContext(ctx, `
UPDATE alerts
SET status = $3, acknowledged_by = $4, acknowledged_at = $5, resolved_at = $6
WHERE id = $1 AND status = $2
`, alert.ID, from, alert.Status, alert.AcknowledgedBy, alert.AcknowledgedAt, alert.ResolvedAt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
