// Package export converts a recorded session log into CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/beeresearch/atomconnect-go/pkg/persistence"
	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

// ErrNoData is returned when the session log holds no records.
var ErrNoData = errors.New("no data recorded")

// Columns is the CSV header.
var Columns = []string{"Timestamp", "TotalCounts", "CPS", "Dose_mSv", "DoseRate_uSv_h", "Battery_%", "Temp_C"}

// TimestampLayout formats the Timestamp column in local time.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultPath returns ~/Downloads/atom_data_YYYYMMDD_HHMM.csv under home.
func DefaultPath(home string, now time.Time) string {
	return filepath.Join(home, "Downloads", fmt.Sprintf("atom_data_%s.csv", now.Format("20060102_1504")))
}

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, records []reading.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func row(r reading.Record) []string {
	ts := ""
	if !r.Time.IsZero() {
		ts = r.Time.Local().Format(TimestampLayout)
	}
	return []string{
		ts,
		strconv.FormatUint(r.Counts, 10),
		strconv.FormatFloat(r.CPS, 'f', -1, 64),
		strconv.FormatFloat(float64(r.Dose), 'f', -1, 32),
		strconv.FormatFloat(float64(r.Rate), 'f', -1, 32),
		strconv.Itoa(int(r.Battery)),
		strconv.Itoa(int(r.Temp)),
	}
}

// SessionLog exports the session log at logPath to a CSV file at outPath,
// creating parent directories. It returns the number of rows written.
func SessionLog(logPath, outPath string) (int, error) {
	records, err := persistence.ReadSessionLog(logPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read session log: %w", err)
	}
	if len(records) == 0 {
		return 0, ErrNoData
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close output file: %w", err)
	}
	return len(records), nil
}
