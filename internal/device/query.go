package device

import "strings"

// RecommendUsageBelow is the usage count under which a device is recommended.
const RecommendUsageBelow = 5

// outdatedMarkers flag an os_version as due for attention.
var outdatedMarkers = []string{"old", "legacy", "deprecated"}

// Search returns the devices whose device_type, serial_number,
// assigned_user or os_version contains query, ignoring case. Order is
// preserved. A blank query matches nothing.
func Search(devices []Device, query string) []Device {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Device{}
	if q == "" {
		return out
	}

	for _, d := range devices {
		for _, field := range []string{d.DeviceType, d.SerialNumber, d.AssignedUser, d.OSVersion} {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// Recommend returns lightly used devices (usage_count below
// RecommendUsageBelow) followed by devices with an outdated os_version,
// each device at most once.
func Recommend(devices []Device) []Device {
	out := []Device{}
	seen := make(map[string]bool, len(devices))

	add := func(d Device) {
		if !seen[d.ID] {
			seen[d.ID] = true
			out = append(out, d)
		}
	}

	for _, d := range devices {
		if d.UsageCount < RecommendUsageBelow {
			add(d)
		}
	}
	for _, d := range devices {
		if outdated(d.OSVersion) {
			add(d)
		}
	}
	return out
}

func outdated(osVersion string) bool {
	v := strings.ToLower(osVersion)
	for _, marker := range outdatedMarkers {
		if strings.Contains(v, marker) {
			return true
		}
	}
	return false
}
