package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

// File names inside the data directory.
const (
	SnapshotFileName   = "latest_data.json"
	SessionLogFileName = "recording.jsonl"
	DeviceListFileName = "device_map.json"
)

// ErrPersistence marks a failed disk write. The session treats it as
// non-fatal; a later write may succeed.
var ErrPersistence = errors.New("persistence failure")

// SampleStore writes the latest snapshot and the session log.
//
// OnSample and ClearSessionLog are called from the session's single sample
// goroutine; LatestSnapshot may be called concurrently from readers.
type SampleStore struct {
	mu           sync.Mutex
	snapshotPath string
	logPath      string
	log          *os.File
	closed       bool
}

// NewSampleStore creates a store writing into dir. The directory is created
// if needed. The existing session log is kept until ClearSessionLog.
func NewSampleStore(dir string) (*SampleStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", ErrPersistence, err)
	}
	return &SampleStore{
		snapshotPath: filepath.Join(dir, SnapshotFileName),
		logPath:      filepath.Join(dir, SessionLogFileName),
	}, nil
}

// SnapshotPath returns the path of the latest snapshot file.
func (s *SampleStore) SnapshotPath() string {
	return s.snapshotPath
}

// SessionLogPath returns the path of the session log.
func (s *SampleStore) SessionLogPath() string {
	return s.logPath
}

// OnSample overwrites the snapshot with sample and appends it to the session
// log. The two writes are independent: both are attempted and any failures
// are joined into one error wrapping ErrPersistence.
func (s *SampleStore) OnSample(sample reading.Sample) error {
	rec := sample.Record()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: store closed", ErrPersistence)
	}

	return errors.Join(s.writeSnapshot(rec), s.appendLog(rec))
}

// ClearSessionLog truncates the session log to empty.
func (s *SampleStore) ClearSessionLog() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.log != nil {
		_ = s.log.Close()
		s.log = nil
	}

	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%w: truncate session log: %w", ErrPersistence, err)
	}
	s.log = f
	return nil
}

// LatestSnapshot reads the snapshot file. It returns nil, nil if no sample
// has been written yet.
func (s *SampleStore) LatestSnapshot() (*reading.Record, error) {
	return ReadSnapshot(s.snapshotPath)
}

// Close closes the session log. Subsequent writes fail.
// It is safe to call Close multiple times.
func (s *SampleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.log == nil {
		return nil
	}
	err := s.log.Close()
	s.log = nil
	return err
}

func (s *SampleStore) writeSnapshot(rec reading.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", ErrPersistence, err)
	}
	if err := writeFileAtomic(s.snapshotPath, data); err != nil {
		return fmt.Errorf("%w: write snapshot: %w", ErrPersistence, err)
	}
	return nil
}

func (s *SampleStore) appendLog(rec reading.Record) error {
	if s.log == nil {
		f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("%w: open session log: %w", ErrPersistence, err)
		}
		s.log = f
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode record: %w", ErrPersistence, err)
	}
	line = append(line, '\n')

	if _, err := s.log.Write(line); err != nil {
		// Reopen on the next write; the handle may be stale.
		_ = s.log.Close()
		s.log = nil
		return fmt.Errorf("%w: append session log: %w", ErrPersistence, err)
	}
	if err := s.log.Sync(); err != nil {
		return fmt.Errorf("%w: sync session log: %w", ErrPersistence, err)
	}
	return nil
}

// ReadSnapshot reads a snapshot file. It returns nil, nil if the file does not
// exist.
func ReadSnapshot(path string) (*reading.Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &reading.Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return rec, nil
}

// writeFileAtomic writes data to a temp file in the same directory and renames
// it over path, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
