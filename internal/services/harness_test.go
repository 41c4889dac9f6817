package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"beacon-guardian/internal/models"
	"beacon-guardian/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

type notified struct {
	TenantID  string
	ElderID   string
	AlertType models.AlertType
	Location  string
	First     bool
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notified
}

func (r *recordingNotifier) NotifyAlert(ctx context.Context, tenantID, elderID string, alertType models.AlertType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notified{TenantID: tenantID, ElderID: elderID, AlertType: alertType})
}

func (r *recordingNotifier) NotifyFirstSignal(ctx context.Context, tenantID, elderID, location string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notified{TenantID: tenantID, ElderID: elderID, Location: location, First: true})
}

func (r *recordingNotifier) alertTypes() []models.AlertType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := []models.AlertType{}
	for _, call := range r.calls {
		if !call.First {
			types = append(types, call.AlertType)
		}
	}
	return types
}

func (r *recordingNotifier) firstSignals() []notified {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := []notified{}
	for _, call := range r.calls {
		if call.First {
			calls = append(calls, call)
		}
	}
	return calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (p *recordingPublisher) PublishAlert(alert models.Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert)
}

type harness struct {
	mem       *store.Memory
	notifier  *recordingNotifier
	publisher *recordingPublisher
	alerts    *AlertService
	ingest    *IngestService
	sweeper   *Sweeper
}

func clock() time.Time { return testNow }

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := store.NewMemory()
	mem.PutTenant(models.Tenant{
		ID:                     "t1",
		Name:                   "Sunrise Community",
		LineChannelAccessToken: "line-token",
		LiffID:                 "liff-1",
		SubscriptionStatus:     models.SubscriptionActive,
		AlertThresholdHours:    12,
		EnableEmergencyAlert:   true,
		EnableInactivityAlert:  true,
	})
	deviceID := "d1"
	mem.PutDevice(models.Device{ID: deviceID, TenantID: "t1"})
	mem.PutElder(models.Elder{
		ID:         "e1",
		TenantID:   "t1",
		Name:       "Grandma Lin",
		MacAddress: "AA:BB:CC:DD:EE:FF",
		DeviceID:   &deviceID,
		Status:     models.ElderInactive,
		LastSeen:   testNow.Add(-time.Hour),
	})
	mem.PutGateway(models.Gateway{ID: "g1", TenantID: "t1", SerialNumber: "GW-LOBBY", GatewayNumber: "1", Location: "Lobby"})
	mem.PutGateway(models.Gateway{ID: "g2", TenantID: "t1", SerialNumber: "GW-GATE", GatewayNumber: "2", Location: "Main Gate", IsBoundary: true})

	messages, err := NewMessages("en", time.FixedZone("CST", 8*3600))
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	alerts := NewAlertService(mem, publisher, zap.NewNop())
	alerts.Now = clock

	return &harness{
		mem:       mem,
		notifier:  notifier,
		publisher: publisher,
		alerts:    alerts,
		ingest: &IngestService{
			Elders:   mem,
			Gateways: mem,
			Devices:  mem,
			Logs:     mem,
			Alerts:   alerts,
			Notifier: notifier,
			Messages: messages,
			Now:      clock,
			Logger:   zap.NewNop(),
		},
		sweeper: &Sweeper{
			Tenants:  mem,
			Elders:   mem,
			Alerts:   alerts,
			Notifier: notifier,
			Messages: messages,
			Now:      clock,
			Logger:   zap.NewNop(),
		},
	}
}

var errStorage = errors.New("storage unavailable")

// faultyStore wraps the memory store and fails the named operations.
// An elder-scoped fault only fires for that elder id; "" matches every elder.
type faultyStore struct {
	*store.Memory
	mu     sync.Mutex
	faults map[string]string
	calls  map[string]int
}

func (f *faultyStore) check(op, elderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	target, ok := f.faults[op]
	if ok && (target == "" || target == elderID) {
		return errStorage
	}
	return nil
}

func (f *faultyStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *faultyStore) TouchGateway(ctx context.Context, gatewayID string, at time.Time) error {
	if err := f.check("TouchGateway", ""); err != nil {
		return err
	}
	return f.Memory.TouchGateway(ctx, gatewayID, at)
}

func (f *faultyStore) UpdateDeviceBattery(ctx context.Context, deviceID string, level int, at time.Time) error {
	if err := f.check("UpdateDeviceBattery", ""); err != nil {
		return err
	}
	return f.Memory.UpdateDeviceBattery(ctx, deviceID, level, at)
}

func (f *faultyStore) RecordElderSignal(ctx context.Context, elderID string, seenAt time.Time, rssi int, gatewayID string) error {
	if err := f.check("RecordElderSignal", elderID); err != nil {
		return err
	}
	return f.Memory.RecordElderSignal(ctx, elderID, seenAt, rssi, gatewayID)
}

func (f *faultyStore) SetElderStatus(ctx context.Context, elderID string, status models.ElderStatus) error {
	if err := f.check("SetElderStatus", elderID); err != nil {
		return err
	}
	return f.Memory.SetElderStatus(ctx, elderID, status)
}

func (f *faultyStore) FindOpenAlert(ctx context.Context, elderID string, alertType models.AlertType, statuses []models.AlertStatus) (*models.Alert, error) {
	if err := f.check("FindOpenAlert", elderID); err != nil {
		return nil, err
	}
	return f.Memory.FindOpenAlert(ctx, elderID, alertType, statuses)
}

func (f *faultyStore) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if err := f.check("CreateAlert", alert.ElderID); err != nil {
		return err
	}
	return f.Memory.CreateAlert(ctx, alert)
}

// withFaults routes every store call of the harness through a faultyStore.
// faults maps an operation name to the elder id it fails for.
func (h *harness) withFaults(faults map[string]string) *faultyStore {
	faulty := &faultyStore{Memory: h.mem, faults: faults, calls: map[string]int{}}
	h.alerts.Store = faulty
	h.ingest.Elders = faulty
	h.ingest.Gateways = faulty
	h.ingest.Devices = faulty
	h.ingest.Logs = faulty
	h.sweeper.Tenants = faulty
	h.sweeper.Elders = faulty
	return faulty
}

func (h *harness) elder(t *testing.T, id string) *models.Elder {
	t.Helper()
	elder, err := h.mem.GetElder(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, elder)
	return elder
}

func intPtr(v int) *int { return &v }

func requireServiceError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var serviceErr ServiceError
	require.True(t, errors.As(err, &serviceErr), "expected ServiceError, got %v", err)
	require.Equal(t, status, serviceErr.Status)
	require.Equal(t, code, serviceErr.Code)
}
