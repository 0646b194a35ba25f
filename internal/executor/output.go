package executor

import (
	"encoding/csv"
	"io"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/rowlang/rowlang/internal/value"
)

// OutputMode selects where produced rows go.
type OutputMode int

const (
	// ModeInMemory accumulates rows for later retrieval.
	ModeInMemory OutputMode = iota
	// ModeCallback hands each row to a user function as it is produced.
	ModeCallback
	// ModeCSV streams rows to a CSV writer with periodic flushing.
	ModeCSV
)

// DefaultFlushInterval is the CSV flush cadence when none is configured.
const DefaultFlushInterval = 100

// OutputManager collects executor output rows. The CSV mode writes a header
// from the first row's sorted column names and keeps that column order for
// every subsequent row; missing fields write as empty cells.
type OutputManager struct {
	mode          OutputMode
	rows          []value.Row
	callback      func(value.Row) error
	writer        *csv.Writer
	header        []string
	headerWritten bool
	flushInterval int
	sinceFlush    int
	written       int
}

// NewInMemoryOutput returns a manager that retains rows in memory.
func NewInMemoryOutput() *OutputManager {
	return &OutputManager{mode: ModeInMemory}
}

// NewCallbackOutput returns a manager that invokes fn for every row.
func NewCallbackOutput(fn func(value.Row) error) *OutputManager {
	return &OutputManager{mode: ModeCallback, callback: fn}
}

// NewCSVOutput returns a manager that streams rows as CSV to w, flushing
// every flushInterval rows.
func NewCSVOutput(w io.Writer, flushInterval int) *OutputManager {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	return &OutputManager{
		mode:          ModeCSV,
		writer:        csv.NewWriter(w),
		flushInterval: flushInterval,
	}
}

// SetColumns fixes the CSV header to the given column order instead of the
// sorted keys of the first row. Must be called before the first Append.
func (m *OutputManager) SetColumns(names []string) {
	m.header = append([]string(nil), names...)
}

// Append routes one output row according to the configured mode.
func (m *OutputManager) Append(row value.Row) error {
	switch m.mode {
	case ModeInMemory:
		m.rows = append(m.rows, row)
		m.written++
		return nil

	case ModeCallback:
		if err := m.callback(row); err != nil {
			return err
		}
		m.written++
		return nil

	case ModeCSV:
		return m.writeCSV(row)
	}
	return nil
}

func (m *OutputManager) writeCSV(row value.Row) error {
	if !m.headerWritten {
		if m.header == nil {
			m.header = maps.Keys(row)
			sort.Strings(m.header)
		}
		if err := m.writer.Write(m.header); err != nil {
			return err
		}
		m.headerWritten = true
	}

	record := make([]string, len(m.header))
	for i, name := range m.header {
		if v, ok := row[name]; ok {
			record[i] = v.Format()
		}
	}
	if err := m.writer.Write(record); err != nil {
		return err
	}
	m.written++
	m.sinceFlush++
	if m.sinceFlush >= m.flushInterval {
		return m.Flush()
	}
	return nil
}

// Flush forces buffered CSV output to the underlying writer.
func (m *OutputManager) Flush() error {
	if m.mode != ModeCSV {
		return nil
	}
	m.sinceFlush = 0
	m.writer.Flush()
	return m.writer.Error()
}

// Close flushes any remaining buffered output. A fixed header set with
// SetColumns is written even when no rows were appended.
func (m *OutputManager) Close() error {
	if m.mode == ModeCSV && !m.headerWritten && m.header != nil {
		if err := m.writer.Write(m.header); err != nil {
			return err
		}
		m.headerWritten = true
	}
	return m.Flush()
}

// Rows returns the retained rows; only the in-memory mode retains any.
func (m *OutputManager) Rows() []value.Row {
	return m.rows
}

// WrittenCount reports how many rows have been appended successfully.
func (m *OutputManager) WrittenCount() int {
	return m.written
}
