package persistence

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/beeresearch/atomconnect-go/pkg/reading"
)

// maxLineSize bounds a single session log line.
const maxLineSize = 64 * 1024

// ReadSessionLog reads all records from a session log file in order.
// A missing file yields an empty slice. An undecodable final line (a write
// torn by a crash) is skipped; an undecodable line anywhere else is an error.
func ReadSessionLog(path string) ([]reading.Record, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeSessionLog(f)
}

// DecodeSessionLog decodes JSON-lines records from r.
func DecodeSessionLog(r io.Reader) ([]reading.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	var (
		records []reading.Record
		pending error
		lineNo  int
	)
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		// A bad line followed by more data is real corruption.
		if pending != nil {
			return nil, pending
		}

		var rec reading.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			pending = fmt.Errorf("session log line %d: %w", lineNo, err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
