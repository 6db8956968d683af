package history

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/device-inventory/internal/stamp"
)

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Notifier receives every record after it has been stored.
// Implementations must not block for long; they run on the request path.
type Notifier interface {
	Notify(ctx context.Context, rec Record)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, rec Record)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, rec Record) { f(ctx, rec) }

// Recorder appends audit records and serves history queries.
//
// All public methods are thread-safe.
type Recorder struct {
	repo   Repository
	source stamp.Source
	logger Logger

	mu        sync.RWMutex
	notifiers []Notifier
}

// NewRecorder creates a Recorder writing to repo, stamping records from source.
func NewRecorder(repo Repository, source stamp.Source) *Recorder {
	return &Recorder{
		repo:   repo,
		source: source,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// AddNotifier registers n to receive stored records.
func (r *Recorder) AddNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers = append(r.notifiers, n)
}

// Append records that user performed action on deviceID. A blank user is
// recorded as SystemUser.
//
// Storage failures are logged and swallowed, and the record is then not
// passed to notifiers. The write is detached from ctx cancellation: the
// device change it describes is already committed.
func (r *Recorder) Append(ctx context.Context, deviceID, user string, action Action) {
	ctx = context.WithoutCancel(ctx)

	if strings.TrimSpace(user) == "" {
		user = SystemUser
	}

	rec := Record{
		ID:        r.source.NewID(),
		DeviceID:  deviceID,
		User:      user,
		Action:    action,
		Timestamp: r.source.Now(),
	}

	if err := r.repo.Append(ctx, rec); err != nil {
		r.logger.Error("history append failed",
			"device_id", deviceID,
			"action", string(action),
			"error", err,
		)
		return
	}

	r.logger.Debug("history recorded", "device_id", deviceID, "action", string(action), "user", user)

	r.mu.RLock()
	notifiers := r.notifiers
	r.mu.RUnlock()

	for _, n := range notifiers {
		n.Notify(ctx, rec)
	}
}

// ForDevice returns the device's records newest first. Records sharing a
// timestamp are ordered by later append first. An unknown device yields an
// empty slice.
func (r *Recorder) ForDevice(ctx context.Context, deviceID string) ([]Record, error) {
	records, err := r.repo.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return newestFirst(records), nil
}

// List returns one page of records across all devices, newest first.
func (r *Recorder) List(ctx context.Context, filter Filter) (*ListResult, error) {
	res, err := r.repo.List(ctx, filter.normalise())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return res, nil
}
