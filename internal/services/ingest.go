package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"beacon-guardian/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SignalRequest is one beacon detection reported by a gateway.
type SignalRequest struct {
	MacAddress string                 `json:"macAddress"`
	Rssi       *int                   `json:"rssi"`
	GatewayID  string                 `json:"gatewayId"`
	SignalType string                 `json:"signalType,omitempty"`
	Timestamp  string                 `json:"timestamp,omitempty"`
	Metadata   *models.SignalMetadata `json:"metadata,omitempty"`
}

type SignalResult struct {
	LogID          string `json:"logId"`
	ElderName      string `json:"elderName"`
	AlertTriggered bool   `json:"alertTriggered"`
}

// IngestService turns gateway signals into presence updates, logs and alerts.
type IngestService struct {
	Elders   ElderStore
	Gateways GatewayStore
	Devices  DeviceStore
	Logs     SignalLogStore
	Alerts   *AlertService
	Notifier Notifier
	Messages *Messages
	Now      func() time.Time
	Logger   *zap.Logger
}

type validSignal struct {
	mac        string
	rssi       int
	gatewayID  string
	signalType models.SignalType
	timestamp  time.Time
	metadata   models.SignalMetadata
}

func (s *IngestService) validate(req SignalRequest, now time.Time) (validSignal, error) {
	mac := strings.TrimSpace(req.MacAddress)
	gatewayID := strings.TrimSpace(req.GatewayID)
	if mac == "" || req.Rssi == nil || gatewayID == "" {
		return validSignal{}, ErrBadRequest("MISSING_FIELDS", "Missing required fields: macAddress, rssi, gatewayId")
	}
	if !IsValidMacAddress(mac) {
		return validSignal{}, ErrBadRequest("INVALID_MAC_ADDRESS", "Invalid MAC Address format")
	}
	if !IsValidRssi(*req.Rssi) {
		return validSignal{}, ErrBadRequest("INVALID_RSSI", "RSSI must be between -100 and 0")
	}
	signal := validSignal{mac: mac, rssi: *req.Rssi, gatewayID: gatewayID, signalType: models.SignalNormal, timestamp: now}
	if req.SignalType != "" {
		signal.signalType = models.SignalType(req.SignalType)
		if !signal.signalType.Valid() {
			return validSignal{}, ErrBadRequest("INVALID_SIGNAL_TYPE", "signalType must be one of normal, emergency, health, other")
		}
	}
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, req.Timestamp)
		if err != nil {
			return validSignal{}, ErrBadRequest("INVALID_TIMESTAMP", "timestamp must be an ISO-8601 date-time")
		}
		signal.timestamp = parsed.UTC()
	}
	if req.Metadata != nil {
		signal.metadata = *req.Metadata
		if level := signal.metadata.BatteryLevel; level != nil && !IsValidBatteryLevel(*level) {
			return validSignal{}, ErrBadRequest("INVALID_BATTERY_LEVEL", "batteryLevel must be between 0 and 100")
		}
	}
	return signal, nil
}

// Receive processes one signal. Steps run in a fixed order; a storage failure after the elder
// lookup aborts the request without undoing earlier writes.
func (s *IngestService) Receive(ctx context.Context, req SignalRequest) (SignalResult, error) {
	now := s.Now()
	signal, err := s.validate(req, now.UTC())
	if err != nil {
		return SignalResult{}, err
	}
	log := s.Logger.With(zap.String("mac_address", signal.mac), zap.String("gateway_id", signal.gatewayID))
	log.Info("Received signal", zap.Int("rssi", signal.rssi), zap.String("signal_type", string(signal.signalType)))

	elder, err := s.Elders.FindElderByMac(ctx, signal.mac)
	if err != nil {
		return SignalResult{}, WrapError(err, "find elder")
	}
	if elder == nil {
		log.Warn("Elder not found")
		return SignalResult{}, ErrNotFound("ELDER_NOT_FOUND", "No elder found with MAC address: "+signal.mac)
	}
	log = log.With(zap.String("elder_id", elder.ID), zap.String("tenant_id", elder.TenantID))

	gateway, err := s.Gateways.FindGateway(ctx, elder.TenantID, signal.gatewayID)
	if err != nil {
		return SignalResult{}, WrapError(err, "find gateway")
	}
	var location string
	if gateway != nil {
		location = gateway.Location
		if err := s.Gateways.TouchGateway(ctx, gateway.ID, now.UTC()); err != nil {
			log.Warn("Failed to touch gateway", zap.Error(err))
		}
	} else {
		log.Info("Gateway not registered")
	}

	metadata, err := json.Marshal(signal.metadata)
	if err != nil {
		return SignalResult{}, WrapError(err, "encode metadata")
	}
	entry := &models.SignalLog{
		ID:         uuid.NewString(),
		TenantID:   elder.TenantID,
		ElderID:    elder.ID,
		MacAddress: signal.mac,
		Rssi:       signal.rssi,
		GatewayID:  signal.gatewayID,
		SignalType: signal.signalType,
		Timestamp:  signal.timestamp,
		Metadata:   metadata,
		CreatedAt:  now.UTC(),
	}
	if err := s.Logs.AppendSignalLog(ctx, entry); err != nil {
		return SignalResult{}, WrapError(err, "append signal log")
	}

	if gateway != nil {
		if err := s.Logs.AppendLocationLog(ctx, &models.LocationLog{
			ID:            uuid.NewString(),
			TenantID:      elder.TenantID,
			ElderID:       elder.ID,
			ElderName:     elder.Name,
			MacAddress:    signal.mac,
			GatewayID:     gateway.ID,
			GatewayNumber: gateway.GatewayNumber,
			Location:      gateway.Location,
			IsBoundary:    gateway.IsBoundary,
			Rssi:          signal.rssi,
			Timestamp:     signal.timestamp,
			CreatedAt:     now.UTC(),
		}); err != nil {
			return SignalResult{}, WrapError(err, "append location log")
		}
	}

	if err := s.Elders.RecordElderSignal(ctx, elder.ID, signal.timestamp, signal.rssi, signal.gatewayID); err != nil {
		return SignalResult{}, WrapError(err, "update elder presence")
	}

	battery := signal.metadata.BatteryLevel
	if elder.DeviceID != nil && *elder.DeviceID != "" && battery != nil {
		if err := s.Devices.UpdateDeviceBattery(ctx, *elder.DeviceID, *battery, signal.timestamp); err != nil {
			log.Warn("Failed to update device battery", zap.String("device_id", *elder.DeviceID), zap.Error(err))
		}
	}

	// Not atomic with the append above: concurrent first pings may both notify.
	seenToday, err := s.Logs.HasSignalSince(ctx, elder.ID, startOfDay(now, s.Messages.Location()), entry.ID)
	if err != nil {
		return SignalResult{}, WrapError(err, "check first signal of day")
	}
	if !seenToday {
		log.Info("First signal of the day")
		s.Notifier.NotifyFirstSignal(ctx, elder.TenantID, elder.ID, location)
	}

	triggered, err := s.evaluateRules(ctx, elder, gateway, signal, log)
	if err != nil {
		return SignalResult{}, err
	}
	return SignalResult{LogID: entry.ID, ElderName: elder.Name, AlertTriggered: triggered}, nil
}

// evaluateRules applies boundary, emergency and battery rules in that order. Each fired
// rule creates a new alert and dispatches a notification.
func (s *IngestService) evaluateRules(ctx context.Context, elder *models.Elder, gateway *models.Gateway, signal validSignal, log *zap.Logger) (bool, error) {
	triggered := false
	fire := func(alertType models.AlertType, severity models.Severity, message string) error {
		if _, err := s.Alerts.Raise(ctx, elder, alertType, severity, message); err != nil {
			return err
		}
		s.Notifier.NotifyAlert(ctx, elder.TenantID, elder.ID, alertType)
		triggered = true
		return nil
	}

	var location string
	if gateway != nil {
		location = gateway.Location
	}

	// Boundary crossings are filed under the inactivity alert type.
	if gateway != nil && gateway.IsBoundary {
		if err := fire(models.AlertInactivity, models.SeverityMedium, s.Messages.BoundaryAlert(elder.Name, location)); err != nil {
			return false, err
		}
		log.Info("Boundary alert triggered", zap.String("location", location))
	}

	if signal.signalType == models.SignalEmergency {
		if err := fire(models.AlertEmergency, models.SeverityCritical, s.Messages.EmergencyAlert(elder.Name, location)); err != nil {
			return false, err
		}
		log.Info("Emergency alert triggered", zap.String("location", location))
	}

	if battery := signal.metadata.BatteryLevel; battery != nil && signal.signalType != models.SignalEmergency {
		switch {
		case *battery < 5:
			if err := fire(models.AlertLowBattery, models.SeverityHigh, s.Messages.CriticalBatteryAlert(elder.Name)); err != nil {
				return false, err
			}
			log.Info("Critical low battery alert triggered", zap.Int("battery_level", *battery))
		case *battery < 20:
			if err := fire(models.AlertLowBattery, models.SeverityMedium, s.Messages.LowBatteryAlert(elder.Name)); err != nil {
				return false, err
			}
			log.Info("Low battery alert triggered", zap.Int("battery_level", *battery))
		}
	}
	return triggered, nil
}

func startOfDay(now time.Time, location *time.Location) time.Time {
	local := now.In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location)
}
