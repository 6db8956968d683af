package history

import (
	"context"
	"sort"
)

// Repository persists history records.
//
// Records are returned in append order; the Recorder applies the
// newest-first ordering on top.
type Repository interface {
	// Append stores one record.
	Append(ctx context.Context, rec Record) error

	// ListByDevice returns every record for deviceID in append order.
	ListByDevice(ctx context.Context, deviceID string) ([]Record, error)

	// List returns the page selected by filter, newest first. The filter
	// has already been normalised.
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// newestFirst reorders records held in append order so the latest
// timestamp comes first, and among equal timestamps the later append.
func newestFirst(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// page filters records (append order) and slices out the requested window.
func page(records []Record, filter Filter) *ListResult {
	var matched []Record
	for _, r := range records {
		if filter.matches(r) {
			matched = append(matched, r)
		}
	}
	matched = newestFirst(matched)

	res := &ListResult{
		Records: []Record{},
		Total:   len(matched),
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}
	if filter.Offset < len(matched) {
		end := min(filter.Offset+filter.Limit, len(matched))
		res.Records = matched[filter.Offset:end]
	}
	return res
}
