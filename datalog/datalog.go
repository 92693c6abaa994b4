// Package datalog appends calibration data rows to a CSV file.
//
// The header is written exactly once, when the file is created, and columns
// keep a stable alphabetical order so runs can be concatenated and diffed.
package datalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Collector appends rows to one CSV file. It is safe for concurrent use;
// the background poller and the control loop may both write rows.
type Collector struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	writer  *csv.Writer
	columns []string
}

// NewCollector opens (or creates) the CSV file at path for appending.
func NewCollector(path string) (*Collector, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("datalog: open %s: %w", path, err)
	}

	return &Collector{
		path:   path,
		file:   file,
		writer: csv.NewWriter(file),
	}, nil
}

// Path returns the output file path.
func (c *Collector) Path() string { return c.path }

// WriteRow appends one row. The first row fixes the column set (sorted by
// name) and writes the header if the file is empty; later rows must not
// introduce new columns, and columns they omit are written empty.
func (c *Collector) WriteRow(row map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.columns == nil {
		if err := c.initColumns(row); err != nil {
			return err
		}
	}

	known := make(map[string]bool, len(c.columns))
	for _, column := range c.columns {
		known[column] = true
	}
	for key := range row {
		if !known[key] {
			return fmt.Errorf("datalog: row introduces unknown column %q", key)
		}
	}

	record := make([]string, len(c.columns))
	for i, column := range c.columns {
		record[i] = row[column]
	}

	if err := c.writer.Write(record); err != nil {
		return fmt.Errorf("datalog: write row: %w", err)
	}
	c.writer.Flush()

	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("datalog: flush: %w", err)
	}

	return nil
}

func (c *Collector) initColumns(row map[string]string) error {
	columns := make([]string, 0, len(row))
	for key := range row {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	c.columns = columns

	info, err := c.file.Stat()
	if err != nil {
		return fmt.Errorf("datalog: stat %s: %w", c.path, err)
	}
	if info.Size() > 0 {
		// Appending to an existing run: the header is already there.
		return nil
	}

	if err := c.writer.Write(columns); err != nil {
		return fmt.Errorf("datalog: write header: %w", err)
	}

	return nil
}

// Close flushes and closes the output file.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return fmt.Errorf("datalog: flush: %w", err)
	}

	if err := c.file.Close(); err != nil {
		return fmt.Errorf("datalog: close %s: %w", c.path, err)
	}

	return nil
}
