package stamp

import (
	"fmt"
	"time"
)

// Layout is the persisted timestamp format: RFC 3339 in UTC with a fixed
// nine-digit fraction, so stored values sort lexically in time order.
const Layout = "2006-01-02T15:04:05.000000000Z07:00"

// legacyLayouts are accepted on read. The last two are naive local
// timestamps without a zone, as written by earlier versions of the
// service; they are taken to be UTC.
var legacyLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Format renders t in Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// FormatPtr renders t, or "" for nil.
func FormatPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Format(*t)
}

// Parse reads a timestamp written by Format or by an older release.
func Parse(s string) (time.Time, error) {
	if t, err := time.Parse(Layout, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("stamp: unrecognised timestamp %q", s)
}

// ParsePtr is Parse for optional values: "" yields nil.
func ParsePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
