package store

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"beacon-guardian/internal/models"
)

// Memory keeps every record in process. It backs local runs and the service tests.
type Memory struct {
	mu           sync.RWMutex
	tenants      map[string]models.Tenant
	elders       map[string]models.Elder
	gateways     map[string]models.Gateway
	devices      map[string]models.Device
	signalLogs   []models.SignalLog
	locationLogs []models.LocationLog
	alerts       []models.Alert
}

func NewMemory() *Memory {
	return &Memory{
		tenants:  map[string]models.Tenant{},
		elders:   map[string]models.Elder{},
		gateways: map[string]models.Gateway{},
		devices:  map[string]models.Device{},
	}
}

type Seed struct {
	Tenants  []models.Tenant  `json:"tenants"`
	Elders   []models.Elder   `json:"elders"`
	Gateways []models.Gateway `json:"gateways"`
	Devices  []models.Device  `json:"devices"`
}

// LoadSeed reads a JSON fixture with tenants, elders, gateways and devices.
func (m *Memory) LoadSeed(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed Seed
	if err := json.Unmarshal(content, &seed); err != nil {
		return err
	}
	for _, tenant := range seed.Tenants {
		m.PutTenant(tenant)
	}
	for _, device := range seed.Devices {
		m.PutDevice(device)
	}
	for _, elder := range seed.Elders {
		m.PutElder(elder)
	}
	for _, gateway := range seed.Gateways {
		m.PutGateway(gateway)
	}
	return nil
}

func (m *Memory) PutTenant(tenant models.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[tenant.ID] = tenant
}

func (m *Memory) PutElder(elder models.Elder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if elder.Status == "" {
		elder.Status = models.ElderActive
	}
	if elder.LastSeen.IsZero() {
		elder.LastSeen = time.Now().UTC()
	}
	m.elders[elder.ID] = elder
}

func (m *Memory) PutGateway(gateway models.Gateway) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateways[gateway.ID] = gateway
}

func (m *Memory) PutDevice(device models.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[device.ID] = device
}

func (m *Memory) PutAlert(alert models.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tenant, ok := m.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	return &tenant, nil
}

func (m *Memory) ListActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tenants := []models.Tenant{}
	for _, tenant := range m.tenants {
		if tenant.SubscriptionStatus == models.SubscriptionActive {
			tenants = append(tenants, tenant)
		}
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].ID < tenants[j].ID })
	return tenants, nil
}

func (m *Memory) FindElderByMac(ctx context.Context, macAddress string) (*models.Elder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := models.NormalizeMacAddress(macAddress)
	var found *models.Elder
	for _, elder := range m.elders {
		if models.NormalizeMacAddress(elder.MacAddress) != want {
			continue
		}
		if found == nil || elder.CreatedAt.Before(found.CreatedAt) {
			candidate := elder
			found = &candidate
		}
	}
	return found, nil
}

func (m *Memory) GetElder(ctx context.Context, elderID string) (*models.Elder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	elder, ok := m.elders[elderID]
	if !ok {
		return nil, nil
	}
	return &elder, nil
}

func (m *Memory) ListEldersByStatus(ctx context.Context, tenantID string, status models.ElderStatus) ([]models.Elder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	elders := []models.Elder{}
	for _, elder := range m.elders {
		if elder.TenantID == tenantID && elder.Status == status {
			elders = append(elders, elder)
		}
	}
	sort.Slice(elders, func(i, j int) bool { return elders[i].LastSeen.Before(elders[j].LastSeen) })
	return elders, nil
}

func (m *Memory) RecordElderSignal(ctx context.Context, elderID string, seenAt time.Time, rssi int, gatewayID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	elder, ok := m.elders[elderID]
	if !ok {
		return nil
	}
	elder.LastSeen = seenAt
	elder.LastSignalRssi = &rssi
	elder.LastGatewayID = &gatewayID
	elder.Status = models.ElderActive
	elder.UpdatedAt = time.Now().UTC()
	m.elders[elderID] = elder
	return nil
}

func (m *Memory) SetElderStatus(ctx context.Context, elderID string, status models.ElderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	elder, ok := m.elders[elderID]
	if !ok {
		return nil
	}
	elder.Status = status
	elder.UpdatedAt = time.Now().UTC()
	m.elders[elderID] = elder
	return nil
}

func (m *Memory) FindGateway(ctx context.Context, tenantID, serialNumber string) (*models.Gateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, gateway := range m.gateways {
		if gateway.TenantID == tenantID && gateway.SerialNumber == serialNumber {
			found := gateway
			return &found, nil
		}
	}
	return nil, nil
}

func (m *Memory) TouchGateway(ctx context.Context, gatewayID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	gateway, ok := m.gateways[gatewayID]
	if !ok {
		return nil
	}
	gateway.LastSeen = &at
	gateway.UpdatedAt = time.Now().UTC()
	m.gateways[gatewayID] = gateway
	return nil
}

func (m *Memory) UpdateDeviceBattery(ctx context.Context, deviceID string, level int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	device, ok := m.devices[deviceID]
	if !ok {
		return nil
	}
	device.LastBatteryLevel = &level
	device.LastBatteryUpdate = &at
	device.UpdatedAt = time.Now().UTC()
	m.devices[deviceID] = device
	return nil
}

func (m *Memory) AppendSignalLog(ctx context.Context, entry *models.SignalLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signalLogs = append(m.signalLogs, *entry)
	return nil
}

func (m *Memory) AppendLocationLog(ctx context.Context, entry *models.LocationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locationLogs = append(m.locationLogs, *entry)
	return nil
}

func (m *Memory) HasSignalSince(ctx context.Context, elderID string, since time.Time, excludeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.signalLogs {
		if entry.ElderID == elderID && entry.ID != excludeID && !entry.Timestamp.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) CreateAlert(ctx context.Context, alert *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, *alert)
	return nil
}

func (m *Memory) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, alert := range m.alerts {
		if alert.ID == alertID {
			found := alert
			return &found, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListAlerts(ctx context.Context, tenantID string, status models.AlertStatus, limit int) ([]models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	alerts := []models.Alert{}
	// Newest first; alerts are appended in creation order.
	for i := len(m.alerts) - 1; i >= 0 && len(alerts) < limit; i-- {
		alert := m.alerts[i]
		if alert.TenantID != tenantID || (status != "" && alert.Status != status) {
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (m *Memory) FindOpenAlert(ctx context.Context, elderID string, alertType models.AlertType, statuses []models.AlertStatus) (*models.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.alerts) - 1; i >= 0; i-- {
		alert := m.alerts[i]
		if alert.ElderID != elderID || alert.AlertType != alertType {
			continue
		}
		for _, status := range statuses {
			if alert.Status == status {
				return &alert, nil
			}
		}
	}
	return nil, nil
}

func (m *Memory) MarkLatestNotified(ctx context.Context, elderID string, alertType models.AlertType, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.alerts) - 1; i >= 0; i-- {
		alert := &m.alerts[i]
		if alert.ElderID == elderID && alert.AlertType == alertType && !alert.NotificationSent {
			alert.NotificationSent = true
			alert.NotificationSentAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) UpdateAlertStatus(ctx context.Context, alert *models.Alert, from models.AlertStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		stored := &m.alerts[i]
		if stored.ID != alert.ID {
			continue
		}
		if stored.Status != from {
			return false, nil
		}
		stored.Status = alert.Status
		stored.AcknowledgedBy = alert.AcknowledgedBy
		stored.AcknowledgedAt = alert.AcknowledgedAt
		stored.ResolvedAt = alert.ResolvedAt
		return true, nil
	}
	return false, nil
}

// Alerts returns a copy of every stored alert in creation order.
func (m *Memory) Alerts() []models.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Alert(nil), m.alerts...)
}

func (m *Memory) SignalLogs() []models.SignalLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.SignalLog(nil), m.signalLogs...)
}

func (m *Memory) LocationLogs() []models.LocationLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.LocationLog(nil), m.locationLogs...)
}

func (m *Memory) Device(deviceID string) (models.Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	device, ok := m.devices[deviceID]
	return device, ok
}

func (m *Memory) Gateway(gatewayID string) (models.Gateway, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gateway, ok := m.gateways[gatewayID]
	return gateway, ok
}
