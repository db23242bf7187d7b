package contacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ImportReport summarizes a CSV import: how many rows were added, how many
// were skipped as duplicates, and a warning per rejected row.
type ImportReport struct {
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Warnings   []string `json:"warnings,omitempty"`
}

var ErrNoValidContacts = errors.New("no valid contacts found in the CSV file")

// ImportCSV reads rows in the export format (header name,phoneNumber).
// Rows with missing fields or numbers without a "+" prefix are skipped with
// a warning; numbers already present locally are skipped as duplicates. The
// surviving rows are appended and the full list is submitted.
func (s *Store) ImportCSV(r io.Reader) (ImportReport, error) {
	var report ImportReport

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return report, fmt.Errorf("failed to parse CSV file: %w", err)
	}

	nameIdx, numberIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "name":
			nameIdx = i
		case "phoneNumber":
			numberIdx = i
		}
	}
	if nameIdx < 0 || numberIdx < 0 {
		return report, errors.New("CSV header must contain name and phoneNumber columns")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]bool, len(s.list))
	for _, c := range s.list {
		existing[c.PhoneNumber] = true
	}

	var fresh []Contact
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, fmt.Errorf("failed to parse CSV file: %w", err)
		}

		var name, number string
		if nameIdx < len(row) {
			name = strings.TrimSpace(row[nameIdx])
		}
		if numberIdx < len(row) {
			number = strings.TrimSpace(row[numberIdx])
		}

		if name == "" || number == "" {
			report.Warnings = append(report.Warnings, "skipped row with missing name or phone number")
			continue
		}
		if !strings.HasPrefix(number, "+") {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("skipped number %s - must start with country code (+)", number))
			continue
		}
		if existing[number] {
			report.Duplicates++
			continue
		}

		existing[number] = true
		fresh = append(fresh, Contact{Name: name, PhoneNumber: number})
	}

	if len(fresh) == 0 {
		return report, ErrNoValidContacts
	}

	next := append(append([]Contact{}, s.list...), fresh...)
	if err := s.api.RegisterContacts(next); err != nil {
		return report, err
	}
	s.list = next
	report.Imported = len(fresh)
	return report, nil
}

// ExportCSV writes the full current list; the output is valid import input.
func (s *Store) ExportCSV(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"name", "phoneNumber"}); err != nil {
		return err
	}
	for _, c := range s.list {
		if err := writer.Write([]string{c.Name, c.PhoneNumber}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
