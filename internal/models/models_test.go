package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMacAddress(t *testing.T) {
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", NormalizeMacAddress("aa-bb-cc-dd-ee-ff"))
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", NormalizeMacAddress(" AA:bb:CC-dd:EE:ff "))
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", NormalizeMacAddress("AA:BB:CC:DD:EE:FF"))
}

func TestTenantThresholdHoursDefault(t *testing.T) {
	assert.Equal(t, 12, Tenant{}.ThresholdHours())
	assert.Equal(t, 12, Tenant{AlertThresholdHours: -3}.ThresholdHours())
	assert.Equal(t, 6, Tenant{AlertThresholdHours: 6}.ThresholdHours())
}
