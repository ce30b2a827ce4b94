package calendar

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LoadCSV reads a trading calendar from a CSV file with calendarDate, isOpen
// and prevTradeDate columns (extra columns, such as a leading index, are
// ignored). Duplicate dates are collapsed.
func LoadCSV(path string) (*Calendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("calendar: open %s: %w", path, err)
	}
	defer f.Close()

	cal, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("calendar: %s: %w", path, err)
	}
	return cal, nil
}

// ReadCSV parses calendar rows from r. The first row must be a header naming
// the calendarDate, isOpen and prevTradeDate columns.
func ReadCSV(r io.Reader) (*Calendar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate an extra index column

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateCol, openCol, prevCol := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "calendarDate":
			dateCol = i
		case "isOpen":
			openCol = i
		case "prevTradeDate":
			prevCol = i
		}
	}
	if dateCol < 0 || openCol < 0 || prevCol < 0 {
		return nil, fmt.Errorf("header missing calendarDate/isOpen/prevTradeDate: %v", header)
	}

	var entries []Entry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(row) <= dateCol || len(row) <= openCol || len(row) <= prevCol {
			return nil, fmt.Errorf("line %d: short row %v", line, row)
		}

		date, err := time.Parse(DateLayout, strings.TrimSpace(row[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad calendarDate: %w", line, err)
		}

		var isOpen bool
		switch strings.TrimSpace(row[openCol]) {
		case "1":
			isOpen = true
		case "0":
			isOpen = false
		default:
			return nil, fmt.Errorf("line %d: isOpen must be 0 or 1, got %q", line, row[openCol])
		}

		var prev time.Time
		if s := strings.TrimSpace(row[prevCol]); s != "" {
			prev, err = time.Parse(DateLayout, s)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad prevTradeDate: %w", line, err)
			}
		}

		entries = append(entries, Entry{Date: date, IsOpen: isOpen, PrevTradeDate: prev})
	}

	return New(entries)
}
