package inventory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProductRow is a fully coerced and validated CSV line, produced only after
// every required field checked out.
type ProductRow struct {
	Store int
	Dept  int
	Size  int
	Type  int
	Date  time.Time
}

// MalformedRowError aborts the whole import; Row counts the header as row 1.
type MalformedRowError struct {
	Row int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("Missing required fields in row %d", e.Row)
}

var ErrEmptyCSV = errors.New("CSV file is empty")

// Date layouts accepted for the Date column, tried in order.
var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006"}

// ParseProductCSV converts raw CSV text into product rows. The format is
// deliberately simple: comma-delimited, header line first, no quoting or
// escaping. Recognized columns are Store, Dept, Size, Type and Date
// (case-sensitive); anything else is ignored. Blank lines are skipped.
// Parsing stops at the first row whose Store, Dept, Size or Type coerces to
// zero; no rows are returned in that case.
func ParseProductCSV(data []byte) ([]ProductRow, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, ErrEmptyCSV
	}

	headers := strings.Split(lines[0], ",")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([]ProductRow, 0, len(lines)-1)
	for i, line := range lines[1:] {
		values := strings.Split(line, ",")

		var row ProductRow
		row.Date = time.Now()
		for j, header := range headers {
			value := ""
			if j < len(values) {
				value = strings.TrimSpace(values[j])
			}
			switch header {
			case "Store":
				row.Store = toInt(value)
			case "Dept":
				row.Dept = toInt(value)
			case "Size":
				row.Size = toInt(value)
			case "Type":
				row.Type = toInt(value)
			case "Date":
				row.Date = toDate(value)
			}
		}

		if row.Store == 0 || row.Dept == 0 || row.Size == 0 || row.Type == 0 {
			return nil, &MalformedRowError{Row: i + 2}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ParseCSVRecords is the loose variant used for training-data upload: every
// column is kept, values stay strings, rows are header-keyed maps.
func ParseCSVRecords(data []byte) ([]map[string]string, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, ErrEmptyCSV
	}

	headers := strings.Split(lines[0], ",")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	records := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, ",")
		row := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(values) {
				row[header] = strings.TrimSpace(values[j])
			} else {
				row[header] = ""
			}
		}
		records = append(records, row)
	}

	return records, nil
}

func splitLines(data []byte) []string {
	raw := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// toInt coerces like the dashboard expects: unparseable values become zero
// and fail the required-field check downstream.
func toInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func toDate(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	// Unparseable dates fall back to the current date.
	return time.Now()
}
