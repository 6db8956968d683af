package device

import (
	"fmt"
	"strings"
)

// normaliseNew checks in and fills the status default. Text fields are kept
// as given; whitespace only counts when deciding a field is blank. A blank
// assigned_user is cleared.
func normaliseNew(in NewDevice) (NewDevice, error) {
	if isBlank(in.AssignedUser) {
		in.AssignedUser = ""
	}

	required := []struct{ name, value string }{
		{"device_type", in.DeviceType},
		{"connectivity", in.Connectivity},
		{"serial_number", in.SerialNumber},
		{"os_version", in.OSVersion},
	}
	for _, f := range required {
		if isBlank(f.value) {
			return in, fmt.Errorf("%w: missing required field: %s", ErrInvalidDevice, f.name)
		}
	}

	if in.UsageCount < 0 {
		return in, fmt.Errorf("%w: usage_count must not be negative", ErrInvalidDevice)
	}

	if in.Status == "" {
		in.Status = StatusAvailable
	}
	switch in.Status {
	case StatusAvailable:
		if in.AssignedUser != "" {
			return in, fmt.Errorf("%w: assigned_user requires status %q", ErrInvalidDevice, StatusCheckedOut)
		}
		if in.CheckOutDate != nil {
			return in, fmt.Errorf("%w: check_out_date requires status %q", ErrInvalidDevice, StatusCheckedOut)
		}
	case StatusCheckedOut:
		if in.AssignedUser == "" {
			return in, fmt.Errorf("%w: assigned_user is required when status is %q", ErrInvalidDevice, StatusCheckedOut)
		}
	default:
		return in, fmt.Errorf("%w: unknown status %q", ErrInvalidDevice, in.Status)
	}

	return in, nil
}

// normalisePatch rejects provided fields that are blank.
func normalisePatch(p Patch) (Patch, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"device_type", p.DeviceType},
		{"connectivity", p.Connectivity},
		{"serial_number", p.SerialNumber},
		{"os_version", p.OSVersion},
	}
	for _, f := range fields {
		if f.value != nil && isBlank(*f.value) {
			return p, fmt.Errorf("%w: %s must not be blank", ErrInvalidDevice, f.name)
		}
	}
	return p, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Consistent reports whether d's status, assigned user and checkout date agree.
func (d *Device) Consistent() bool {
	switch d.Status {
	case StatusAvailable:
		return d.AssignedUser == "" && d.CheckOutDate == nil
	case StatusCheckedOut:
		return d.AssignedUser != "" && d.CheckOutDate != nil
	default:
		return false
	}
}
