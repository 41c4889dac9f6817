package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidMacAddress(t *testing.T) {
	valid := []string{"AA:BB:CC:DD:EE:FF", "aa-bb-cc-dd-ee-ff", "01:23:45:67:89:aB", "01-23:45-67:89-AB"}
	for _, mac := range valid {
		assert.True(t, IsValidMacAddress(mac), mac)
	}
	invalid := []string{"", "AA:BB:CC:DD:EE", "AA:BB:CC:DD:EE:FF:00", "AABBCCDDEEFF", "GG:BB:CC:DD:EE:FF", "AA.BB.CC.DD.EE.FF", " AA:BB:CC:DD:EE:FF"}
	for _, mac := range invalid {
		assert.False(t, IsValidMacAddress(mac), mac)
	}
}

func TestIsValidRssi(t *testing.T) {
	assert.True(t, IsValidRssi(-100))
	assert.True(t, IsValidRssi(-65))
	assert.True(t, IsValidRssi(0))
	assert.False(t, IsValidRssi(-101))
	assert.False(t, IsValidRssi(1))
}

func TestIsValidBatteryLevel(t *testing.T) {
	assert.True(t, IsValidBatteryLevel(0))
	assert.True(t, IsValidBatteryLevel(100))
	assert.False(t, IsValidBatteryLevel(-1))
	assert.False(t, IsValidBatteryLevel(101))
}
