package services

import (
	"time"

	"beacon-guardian/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	keyAlertBoundary          = "alert.boundary"
	keyAlertEmergency         = "alert.emergency"
	keyAlertEmergencyAt       = "alert.emergency.location"
	keyAlertBatteryCritical   = "alert.battery.critical"
	keyAlertBatteryLow        = "alert.battery.low"
	keyAlertInactivity        = "alert.inactivity"
	keyNotifyHeader           = "notify.header"
	keyNotifyEmergency        = "notify.emergency"
	keyNotifyInactivity       = "notify.inactivity"
	keyNotifyLowBattery       = "notify.low_battery"
	keyNotifyDeviceOffline    = "notify.device_offline"
	keyNotifyOther            = "notify.other"
	keyFirstSignalHeader      = "notify.first_signal.header"
	keyFirstSignalLocation    = "notify.first_signal.location"
	keyFirstSignalFooter      = "notify.first_signal.footer"
	keyActionLabel            = "action.label"
	keyActionAlertPrompt      = "action.alert.prompt"
	keyActionFirstSignalPromp = "action.first_signal.prompt"
)

var supportedLocales = []language.Tag{language.TraditionalChinese, language.English}

var localeMatcher = language.NewMatcher(supportedLocales)

var templates = map[language.Tag]map[string]string{
	language.TraditionalChinese: {
		keyAlertBoundary:          "%[1]s 經過邊界點「%[2]s」",
		keyAlertEmergency:         "%[1]s 觸發緊急求救按鈕！",
		keyAlertEmergencyAt:       "%[1]s 觸發緊急求救按鈕！ 位置：%[2]s",
		keyAlertBatteryCritical:   "%[1]s 的裝置電量不足 5%%，即將耗盡！",
		keyAlertBatteryLow:        "%[1]s 的裝置電量不足 20%%",
		keyAlertInactivity:        "%[1]s 已超過 %[2]d 小時未偵測到活動訊號",
		keyNotifyHeader:           "⚠️ 警報通知\n\n姓名：%[1]s\n",
		keyNotifyEmergency:        "類型：緊急求救\n時間：%[1]s\n\n請立即確認長者狀況！",
		keyNotifyInactivity:       "類型：長時間未活動\n最後出現：%[1]s\n\n請確認長者是否安全。",
		keyNotifyLowBattery:       "類型：裝置電量不足\n時間：%[1]s\n\n請提醒長者充電。",
		keyNotifyDeviceOffline:    "類型：裝置離線\n時間：%[1]s\n\n裝置已超過 24 小時無訊號。",
		keyNotifyOther:            "類型：其他異常\n請查看詳細資訊。",
		keyFirstSignalHeader:      "✅ 活動通知\n\n姓名：%[1]s\n時間：%[2]s\n",
		keyFirstSignalLocation:    "地點：%[1]s\n",
		keyFirstSignalFooter:      "\n%[1]s 今日首次活動訊號已收到！",
		keyActionLabel:            "查看詳細資訊",
		keyActionAlertPrompt:      "點擊下方按鈕查看更多",
		keyActionFirstSignalPromp: "點擊查看長者詳細資訊",
	},
	language.English: {
		keyAlertBoundary:          "%[1]s passed boundary point \"%[2]s\"",
		keyAlertEmergency:         "%[1]s pressed the emergency button!",
		keyAlertEmergencyAt:       "%[1]s pressed the emergency button! Location: %[2]s",
		keyAlertBatteryCritical:   "%[1]s's device battery is below 5%% and about to run out!",
		keyAlertBatteryLow:        "%[1]s's device battery is below 20%%",
		keyAlertInactivity:        "No activity signal from %[1]s for more than %[2]d hours",
		keyNotifyHeader:           "⚠️ Alert\n\nName: %[1]s\n",
		keyNotifyEmergency:        "Type: Emergency call\nTime: %[1]s\n\nPlease check on them immediately!",
		keyNotifyInactivity:       "Type: Prolonged inactivity\nLast seen: %[1]s\n\nPlease confirm they are safe.",
		keyNotifyLowBattery:       "Type: Low device battery\nTime: %[1]s\n\nPlease remind them to charge the device.",
		keyNotifyDeviceOffline:    "Type: Device offline\nTime: %[1]s\n\nNo signal from the device for over 24 hours.",
		keyNotifyOther:            "Type: Other\nPlease open the details.",
		keyFirstSignalHeader:      "✅ Activity\n\nName: %[1]s\nTime: %[2]s\n",
		keyFirstSignalLocation:    "Location: %[1]s\n",
		keyFirstSignalFooter:      "\nFirst activity signal of the day received from %[1]s!",
		keyActionLabel:            "View details",
		keyActionAlertPrompt:      "Tap the button below for more",
		keyActionFirstSignalPromp: "Tap to view the elder's details",
	},
}

const (
	fullTimeLayout  = "2006/01/02 15:04:05"
	clockTimeLayout = "15:04"
)

// Messages renders alert texts and notification bodies in one locale and time zone.
type Messages struct {
	tag      language.Tag
	catalog  catalog.Catalog
	location *time.Location
}

func NewMessages(locale string, location *time.Location) (*Messages, error) {
	builder := catalog.NewBuilder(catalog.Fallback(language.TraditionalChinese))
	for tag, entries := range templates {
		for key, msg := range entries {
			if err := builder.SetString(tag, key, msg); err != nil {
				return nil, err
			}
		}
	}
	requested, err := language.Parse(locale)
	if err != nil {
		requested = language.TraditionalChinese
	}
	_, index, _ := localeMatcher.Match(requested)
	if location == nil {
		location = time.UTC
	}
	return &Messages{tag: supportedLocales[index], catalog: builder, location: location}, nil
}

func (m *Messages) sprintf(key string, args ...interface{}) string {
	return message.NewPrinter(m.tag, message.Catalog(m.catalog)).Sprintf(key, args...)
}

func (m *Messages) Location() *time.Location {
	return m.location
}

func (m *Messages) BoundaryAlert(name, location string) string {
	return m.sprintf(keyAlertBoundary, name, location)
}

func (m *Messages) EmergencyAlert(name, location string) string {
	if location == "" {
		return m.sprintf(keyAlertEmergency, name)
	}
	return m.sprintf(keyAlertEmergencyAt, name, location)
}

func (m *Messages) CriticalBatteryAlert(name string) string {
	return m.sprintf(keyAlertBatteryCritical, name)
}

func (m *Messages) LowBatteryAlert(name string) string {
	return m.sprintf(keyAlertBatteryLow, name)
}

func (m *Messages) InactivityAlert(name string, hours int) string {
	return m.sprintf(keyAlertInactivity, name, hours)
}

// AlertNotification builds the broadcast body for an alert type.
func (m *Messages) AlertNotification(elder *models.Elder, alertType models.AlertType, now time.Time) string {
	body := m.sprintf(keyNotifyHeader, elder.Name)
	stamp := now.In(m.location).Format(fullTimeLayout)
	switch alertType {
	case models.AlertEmergency:
		return body + m.sprintf(keyNotifyEmergency, stamp)
	case models.AlertInactivity:
		return body + m.sprintf(keyNotifyInactivity, elder.LastSeen.In(m.location).Format(fullTimeLayout))
	case models.AlertLowBattery:
		return body + m.sprintf(keyNotifyLowBattery, stamp)
	case models.AlertDeviceOffline:
		return body + m.sprintf(keyNotifyDeviceOffline, stamp)
	default:
		return body + m.sprintf(keyNotifyOther)
	}
}

func (m *Messages) FirstSignalNotification(name string, at time.Time, location string) string {
	body := m.sprintf(keyFirstSignalHeader, name, at.In(m.location).Format(clockTimeLayout))
	if location != "" {
		body += m.sprintf(keyFirstSignalLocation, location)
	}
	return body + m.sprintf(keyFirstSignalFooter, name)
}

func (m *Messages) ActionLabel() string {
	return m.sprintf(keyActionLabel)
}

func (m *Messages) AlertActionPrompt() string {
	return m.sprintf(keyActionAlertPrompt)
}

func (m *Messages) FirstSignalActionPrompt() string {
	return m.sprintf(keyActionFirstSignalPromp)
}
