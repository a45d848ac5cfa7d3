package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/beeresearch/atomconnect-go/pkg/ble"
	"github.com/beeresearch/atomconnect-go/pkg/discovery"
)

// KnownDevice is one entry in the device list file.
type KnownDevice struct {
	// Name is the advertised local name.
	Name string `json:"name"`

	// Address is the platform device address.
	Address string `json:"address"`

	// Signal is the RSSI in dBm observed when the device was found.
	Signal int `json:"sig"`
}

// DeviceListStore persists the devices found by the last scan.
type DeviceListStore struct {
	mu   sync.Mutex
	path string
}

// NewDeviceListStore creates a new device list store.
func NewDeviceListStore(path string) *DeviceListStore {
	return &DeviceListStore{path: path}
}

// Path returns the file path of the store.
func (s *DeviceListStore) Path() string {
	return s.path
}

// Save replaces the device list on disk.
func (s *DeviceListStore) Save(devices []discovery.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	entries := make([]KnownDevice, 0, len(devices))
	for _, d := range devices {
		entries = append(entries, KnownDevice{
			Name:    d.Name,
			Address: d.Address.String(),
			Signal:  d.RSSI,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	return writeFileAtomic(s.path, data)
}

// Load reads the device list. A missing or malformed file yields an empty
// list and no error; the list is a convenience cache, not a source of truth.
func (s *DeviceListStore) Load() ([]discovery.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []KnownDevice
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil
	}

	devices := make([]discovery.Device, 0, len(entries))
	for _, e := range entries {
		if e.Address == "" {
			continue
		}
		devices = append(devices, discovery.Device{
			Name:    e.Name,
			Address: ble.Address(e.Address),
			RSSI:    e.Signal,
		})
	}
	return devices, nil
}

// Clear removes the device list file.
func (s *DeviceListStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
