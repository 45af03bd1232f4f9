package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV replaces the document milestones with the rows of r. The first
// row is the header; d.Columns names the headers to read. Only the
// timestamp and title columns are required.
func (d *Document) ReadCSV(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("error reading CSV header: %w", err)
	}
	columnMap := make(map[string]int)
	for i, col := range header {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{d.Columns.Timestamp, d.Columns.Title} {
		if _, ok := columnMap[strings.ToLower(required)]; !ok {
			return fmt.Errorf("column '%s' not found in CSV. Available columns: %v", required, header)
		}
	}

	field := func(record []string, name string) string {
		i, ok := columnMap[strings.ToLower(name)]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var milestones []Milestone
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading CSV: %w", err)
		}
		m := Milestone{
			Date:        field(record, d.Columns.Timestamp),
			Title:       field(record, d.Columns.Title),
			Description: field(record, d.Columns.Description),
			Category:    field(record, d.Columns.Category),
			EndDate:     field(record, d.Columns.EndDate),
			Badge:       field(record, d.Columns.Badge),
		}
		if v := field(record, d.Columns.Highlight); v != "" {
			if m.Highlight, err = strconv.ParseBool(v); err != nil {
				return fmt.Errorf("CSV line %d: highlight %q: %w", line, v, err)
			}
		}
		if v := field(record, d.Columns.Progress); v != "" {
			p, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
			if err != nil {
				return fmt.Errorf("CSV line %d: progress %q: %w", line, v, err)
			}
			m.Progress = &p
		}
		milestones = append(milestones, m)
	}
	d.Milestones = milestones
	return nil
}
