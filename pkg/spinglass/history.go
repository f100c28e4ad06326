package spinglass

import (
	"bufio"
	"fmt"
	"os"

	"go.uber.org/multierr"
)

// HistoryLogger appends one "iteration temperature active_spins" line per
// annealing iteration. A nil *HistoryLogger is a valid no-op logger.
type HistoryLogger struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	err    error // first write error, reported by Close
}

// NewHistoryLogger truncates and opens path. An empty path returns a nil
// logger.
func NewHistoryLogger(path string) (*HistoryLogger, error) {
	if path == "" {
		return nil, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening history file: %w", ErrIO, err)
	}

	return &HistoryLogger{
		path:   path,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Record writes the post-iteration state of one iteration
func (h *HistoryLogger) Record(iteration int, temperature float64, activeSpins int) {
	if h == nil || h.err != nil {
		return
	}

	if _, err := fmt.Fprintf(h.writer, "%d %g %d\n", iteration, temperature, activeSpins); err != nil {
		h.err = err
	}
}

// Close flushes buffered records and releases the file. It is safe to call
// more than once.
func (h *HistoryLogger) Close() error {
	if h == nil || h.file == nil {
		return nil
	}

	err := h.err
	err = multierr.Append(err, h.writer.Flush())
	err = multierr.Append(err, h.file.Close())
	h.file = nil

	if err != nil {
		return fmt.Errorf("%w: writing history file %s: %w", ErrIO, h.path, err)
	}
	return nil
}
