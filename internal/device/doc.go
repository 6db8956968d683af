// Package device provides the device lifecycle for the inventory service.
//
// A device is a physical item (laptop, phone, tablet) identified by a
// unique serial number. It is either available or checked out to a user;
// checkout and checkin are the only ways to move between the two.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                           Manager                              │
//	│  Create / Update / Checkout / Checkin      Get / List / Stats  │
//	│        │  mutex-serialised                 Search / Recommend  │
//	└────────┼───────────────────────────────────────┬──────────────┘
//	         ▼                                       ▼
//	┌──────────────────┐                   ┌──────────────────┐
//	│    Repository    │                   │     Recorder     │
//	│ CSV  or  SQLite  │                   │ (history package)│
//	└──────────────────┘                   └──────────────────┘
//
// Every committed mutation appends exactly one history entry:
// device_created, device_updated, device_checked_out or device_checked_in.
//
// # Usage
//
//	repo, err := device.NewCSVRepository("data/devices.csv")
//	if err != nil {
//	    return err
//	}
//	mgr := device.NewManager(repo, recorder, stamp.System{})
//
//	dev, err := mgr.Create(ctx, device.NewDevice{
//	    DeviceType:   "Laptop",
//	    Connectivity: "WiFi",
//	    SerialNumber: "LAP001",
//	    OSVersion:    "Windows 11",
//	})
//	dev, err = mgr.Checkout(ctx, dev.ID, "alice")
//
// # Errors
//
// Validation failures wrap ErrInvalidDevice, wrong-state transitions wrap
// ErrInvalidTransition, and repository failures wrap ErrStorage.
package device
