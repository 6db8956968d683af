package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/device-inventory/internal/history"
	"github.com/nerrad567/device-inventory/internal/stamp"
)

// Logger defines the logging interface used by the Manager.
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

// Recorder receives one audit entry per committed mutation.
// *history.Recorder satisfies it.
type Recorder interface {
	Append(ctx context.Context, deviceID, user string, action history.Action)
}

// Manager owns the device lifecycle: creation, field updates and the
// available/checked_out state machine.
//
// Mutations are serialised by a mutex so the load, validate and write
// steps of one request cannot interleave with another's. Reads go straight
// to the repository.
type Manager struct {
	repo     Repository
	recorder Recorder
	source   stamp.Source
	logger   Logger

	mu sync.Mutex
}

// NewManager creates a device manager.
func NewManager(repo Repository, recorder Recorder, source stamp.Source) *Manager {
	return &Manager{
		repo:     repo,
		recorder: recorder,
		source:   source,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Create validates and stores a new device and records device_created by
// the system user.
func (m *Manager) Create(ctx context.Context, in NewDevice) (*Device, error) {
	in, err := normaliseNew(in)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.repo.List(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	if serialTaken(existing, in.SerialNumber, "") {
		return nil, ErrSerialExists
	}

	now := m.source.Now()
	d := &Device{
		ID:           m.source.NewID(),
		DeviceType:   in.DeviceType,
		Connectivity: in.Connectivity,
		SerialNumber: in.SerialNumber,
		OSVersion:    in.OSVersion,
		AssignedUser: in.AssignedUser,
		Status:       in.Status,
		UsageCount:   in.UsageCount,
		CheckOutDate: in.CheckOutDate,
		CreatedAt:    now,
		LastUpdated:  now,
	}
	if d.Status == StatusCheckedOut && d.CheckOutDate == nil {
		d.CheckOutDate = &now
	}

	if err := m.repo.Create(ctx, d); err != nil {
		return nil, storageErr(err)
	}

	m.logger.Info("device created", "device_id", d.ID, "serial_number", d.SerialNumber)
	m.recorder.Append(ctx, d.ID, history.SystemUser, history.ActionCreated)
	return d.Clone(), nil
}

// Update applies the non-nil fields of p. An empty patch still refreshes
// last_updated and records device_updated.
func (m *Manager) Update(ctx context.Context, id string, p Patch) (*Device, error) {
	p, err := normalisePatch(p)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}

	if p.SerialNumber != nil && *p.SerialNumber != d.SerialNumber {
		existing, err := m.repo.List(ctx)
		if err != nil {
			return nil, storageErr(err)
		}
		if serialTaken(existing, *p.SerialNumber, d.ID) {
			return nil, ErrSerialExists
		}
	}

	applyPatch(d, p)
	d.LastUpdated = m.source.Now()

	if err := m.repo.Update(ctx, d); err != nil {
		return nil, storageErr(err)
	}

	actor := history.SystemUser
	if p.UpdatedBy != nil {
		actor = *p.UpdatedBy
	}

	m.logger.Info("device updated", "device_id", d.ID)
	m.recorder.Append(ctx, d.ID, actor, history.ActionUpdated)
	return d.Clone(), nil
}

// Checkout assigns an available device to user.
func (m *Manager) Checkout(ctx context.Context, id, user string) (*Device, error) {
	if isBlank(user) {
		return nil, ErrCheckoutUserRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	if d.Status != StatusAvailable {
		return nil, ErrNotAvailable
	}

	now := m.source.Now()
	d.AssignedUser = user
	d.Status = StatusCheckedOut
	d.CheckOutDate = &now
	d.UsageCount++
	d.LastUpdated = now

	if err := m.repo.Update(ctx, d); err != nil {
		return nil, storageErr(err)
	}

	m.logger.Info("device checked out", "device_id", d.ID, "usage_count", d.UsageCount)
	m.recorder.Append(ctx, d.ID, user, history.ActionCheckedOut)
	return d.Clone(), nil
}

// Checkin returns a checked-out device. The history entry names the user
// the device was assigned to.
func (m *Manager) Checkin(ctx context.Context, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	if d.Status != StatusCheckedOut {
		return nil, ErrNotCheckedOut
	}

	previous := d.AssignedUser
	d.AssignedUser = ""
	d.Status = StatusAvailable
	d.CheckOutDate = nil
	d.LastUpdated = m.source.Now()

	if err := m.repo.Update(ctx, d); err != nil {
		return nil, storageErr(err)
	}

	m.logger.Info("device checked in", "device_id", d.ID)
	m.recorder.Append(ctx, d.ID, previous, history.ActionCheckedIn)
	return d.Clone(), nil
}

// Get returns one device.
func (m *Manager) Get(ctx context.Context, id string) (*Device, error) {
	d, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	return d, nil
}

// List returns every device in persisted order.
func (m *Manager) List(ctx context.Context) ([]Device, error) {
	devices, err := m.repo.List(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	if devices == nil {
		devices = []Device{}
	}
	return devices, nil
}

// Search returns devices matching query; see Search.
func (m *Manager) Search(ctx context.Context, query string) ([]Device, error) {
	devices, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return Search(devices, query), nil
}

// Recommendations returns devices worth picking next; see Recommend.
func (m *Manager) Recommendations(ctx context.Context) ([]Device, error) {
	devices, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return Recommend(devices), nil
}

// Stats counts devices by status and type.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	devices, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	s := &Stats{Total: len(devices), ByType: make(map[string]int)}
	for _, d := range devices {
		switch d.Status {
		case StatusAvailable:
			s.Available++
		case StatusCheckedOut:
			s.CheckedOut++
		}
		s.ByType[d.DeviceType]++
	}
	return s, nil
}

func applyPatch(d *Device, p Patch) {
	if p.DeviceType != nil {
		d.DeviceType = *p.DeviceType
	}
	if p.Connectivity != nil {
		d.Connectivity = *p.Connectivity
	}
	if p.SerialNumber != nil {
		d.SerialNumber = *p.SerialNumber
	}
	if p.OSVersion != nil {
		d.OSVersion = *p.OSVersion
	}
}

// serialTaken reports whether a device other than exceptID uses serial.
func serialTaken(devices []Device, serial, exceptID string) bool {
	for _, d := range devices {
		if d.ID != exceptID && d.SerialNumber == serial {
			return true
		}
	}
	return false
}

// storageErr passes domain errors through and wraps everything else in ErrStorage.
func storageErr(err error) error {
	if errors.Is(err, ErrDeviceNotFound) || errors.Is(err, ErrSerialExists) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
