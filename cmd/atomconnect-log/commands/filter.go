package commands

import (
	"fmt"
	"io"

	"github.com/beeresearch/atomconnect-go/pkg/log"
)

// RunFilter writes the events of path matching filter to a new capture at
// output and reports the count on w.
func RunFilter(path, output string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.CreateFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}

	if err := eachEvent(reader, func(event log.Event) error {
		logger.Log(event)
		return nil
	}); err != nil {
		logger.Close()
		return err
	}

	count := logger.Count()
	if err := logger.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, output)
	return nil
}
