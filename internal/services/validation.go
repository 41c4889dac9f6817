package services

import "regexp"

var macAddressPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`)

// IsValidMacAddress accepts six hex byte pairs separated by ':' or '-', in any case.
func IsValidMacAddress(mac string) bool {
	return macAddressPattern.MatchString(mac)
}

// IsValidRssi reports whether rssi is a plausible signal strength in dBm.
func IsValidRssi(rssi int) bool {
	return rssi >= -100 && rssi <= 0
}

func IsValidBatteryLevel(level int) bool {
	return level >= 0 && level <= 100
}
