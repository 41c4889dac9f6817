package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
)

const DefaultAlertThresholdHours = 12

// NormalizeMacAddress upper-cases mac and uses ':' as the byte separator, so
// "aa-bb-cc-dd-ee-ff" and "AA:BB:CC:DD:EE:FF" compare equal.
func NormalizeMacAddress(mac string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(mac)), "-", ":")
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

type Tenant struct {
	ID                     string             `db:"id" json:"id"`
	Name                   string             `db:"name" json:"name"`
	LineChannelAccessToken string             `db:"line_channel_access_token" json:"lineChannelAccessToken"`
	LineChannelSecret      string             `db:"line_channel_secret" json:"lineChannelSecret"`
	LiffID                 string             `db:"liff_id" json:"liffId"`
	AdminLineIDs           pq.StringArray     `db:"admin_line_ids" json:"adminLineIds"`
	SubscriptionPlan       string             `db:"subscription_plan" json:"subscriptionPlan"`
	SubscriptionStart      *time.Time         `db:"subscription_start" json:"subscriptionStart,omitempty"`
	SubscriptionEnd        *time.Time         `db:"subscription_end" json:"subscriptionEnd,omitempty"`
	SubscriptionStatus     SubscriptionStatus `db:"subscription_status" json:"subscriptionStatus"`
	AlertThresholdHours    int                `db:"alert_threshold_hours" json:"alertThresholdHours"`
	EnableEmergencyAlert   bool               `db:"enable_emergency_alert" json:"enableEmergencyAlert"`
	EnableInactivityAlert  bool               `db:"enable_inactivity_alert" json:"enableInactivityAlert"`
	CreatedAt              time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time          `db:"updated_at" json:"updatedAt"`
}

// ThresholdHours returns the configured inactivity threshold, defaulting unset values.
func (t Tenant) ThresholdHours() int {
	if t.AlertThresholdHours <= 0 {
		return DefaultAlertThresholdHours
	}
	return t.AlertThresholdHours
}

type ElderStatus string

const (
	ElderActive   ElderStatus = "active"
	ElderInactive ElderStatus = "inactive"
	ElderOffline  ElderStatus = "offline"
)

type Elder struct {
	ID               string      `db:"id" json:"id"`
	TenantID         string      `db:"tenant_id" json:"tenantId"`
	Name             string      `db:"name" json:"name"`
	Age              *int        `db:"age" json:"age,omitempty"`
	Gender           *string     `db:"gender" json:"gender,omitempty"`
	Address          *string     `db:"address" json:"address,omitempty"`
	ContactPhone     *string     `db:"contact_phone" json:"contactPhone,omitempty"`
	EmergencyContact *string     `db:"emergency_contact" json:"emergencyContact,omitempty"`
	EmergencyPhone   *string     `db:"emergency_phone" json:"emergencyPhone,omitempty"`
	MacAddress       string      `db:"mac_address" json:"macAddress"`
	DeviceID         *string     `db:"device_id" json:"deviceId,omitempty"`
	Status           ElderStatus `db:"status" json:"status"`
	LastSeen         time.Time   `db:"last_seen" json:"lastSeen"`
	LastSignalRssi   *int        `db:"last_signal_rssi" json:"lastSignalRssi,omitempty"`
	LastGatewayID    *string     `db:"last_gateway_id" json:"lastGatewayId,omitempty"`
	Notes            *string     `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updatedAt"`
}

type Gateway struct {
	ID            string     `db:"id" json:"id"`
	TenantID      string     `db:"tenant_id" json:"tenantId"`
	SerialNumber  string     `db:"serial_number" json:"serialNumber"`
	GatewayNumber string     `db:"gateway_number" json:"gatewayNumber"`
	Location      string     `db:"location" json:"location"`
	IsBoundary    bool       `db:"is_boundary" json:"isBoundary"`
	Status        string     `db:"status" json:"status"`
	LastSeen      *time.Time `db:"last_seen" json:"lastSeen,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

type Device struct {
	ID                string     `db:"id" json:"id"`
	TenantID          string     `db:"tenant_id" json:"tenantId"`
	LastBatteryLevel  *int       `db:"last_battery_level" json:"lastBatteryLevel,omitempty"`
	LastBatteryUpdate *time.Time `db:"last_battery_update" json:"lastBatteryUpdate,omitempty"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

type SignalType string

const (
	SignalNormal    SignalType = "normal"
	SignalEmergency SignalType = "emergency"
	SignalHealth    SignalType = "health"
	SignalOther     SignalType = "other"
)

func (t SignalType) Valid() bool {
	switch t {
	case SignalNormal, SignalEmergency, SignalHealth, SignalOther:
		return true
	}
	return false
}

// SignalMetadata carries the optional sensor readings a beacon may report.
type SignalMetadata struct {
	BatteryLevel *int     `json:"batteryLevel,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
}

type SignalLog struct {
	ID         string          `db:"id" json:"id"`
	TenantID   string          `db:"tenant_id" json:"tenantId"`
	ElderID    string          `db:"elder_id" json:"elderId"`
	MacAddress string          `db:"mac_address" json:"macAddress"`
	Rssi       int             `db:"rssi" json:"rssi"`
	GatewayID  string          `db:"gateway_id" json:"gatewayId"`
	SignalType SignalType      `db:"signal_type" json:"signalType"`
	Timestamp  time.Time       `db:"observed_at" json:"timestamp"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

type LocationLog struct {
	ID            string    `db:"id" json:"id"`
	TenantID      string    `db:"tenant_id" json:"tenantId"`
	ElderID       string    `db:"elder_id" json:"elderId"`
	ElderName     string    `db:"elder_name" json:"elderName"`
	MacAddress    string    `db:"mac_address" json:"macAddress"`
	GatewayID     string    `db:"gateway_id" json:"gatewayId"`
	GatewayNumber string    `db:"gateway_number" json:"gatewayNumber"`
	Location      string    `db:"location" json:"location"`
	IsBoundary    bool      `db:"is_boundary" json:"isBoundary"`
	Rssi          int       `db:"rssi" json:"rssi"`
	Timestamp     time.Time `db:"observed_at" json:"timestamp"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
