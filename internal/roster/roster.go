// Package roster turns uploaded recipient data into the ordered records the
// campaign core iterates over. It understands Excel workbooks, CSV files, and
// directly supplied field maps; column headers are normalized so the rest of
// the system can rely on fixed field names.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Normalized field names the campaign core depends on.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldCompany = "company"
	FieldRole    = "role"
	FieldLink    = "link"
)

// RequiredFields lists the columns a record must carry to be deliverable.
// Records missing any of them are skipped by the delivery loop.
var RequiredFields = []string{FieldName, FieldEmail, FieldCompany, FieldRole}

// Record is one row of recipient data, keyed by normalized column name.
type Record map[string]string

// Get returns the value of a field, or "" when absent.
func (r Record) Get(field string) string { return r[field] }

// FirstName returns the first whitespace-delimited token of the name field.
func (r Record) FirstName() string {
	fields := strings.Fields(r[FieldName])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// MissingFields reports which required fields are empty or absent, in the
// order of RequiredFields.
func (r Record) MissingFields() []string {
	var missing []string
	for _, f := range RequiredFields {
		if strings.TrimSpace(r[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// FromMaps builds records from directly supplied rows (e.g. a JSON request
// body), normalizing the keys the same way file ingestion does.
func FromMaps(rows []map[string]string) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{}
		for k, v := range row {
			key := normalizeHeader(k)
			if key == "" {
				continue
			}
			rec[key] = strings.TrimSpace(v)
		}
		records = append(records, rec)
	}
	return records
}

// fromRows builds records from a header row plus data rows. Cells beyond the
// header width are ignored; fully blank rows are dropped.
func fromRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster: missing header row")
	}
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizeHeader(h)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := Record{}
		blank := true
		for i, cell := range row {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			value := strings.TrimSpace(cell)
			if value != "" {
				blank = false
			}
			rec[headers[i]] = value
		}
		if blank {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseCSV reads a comma-separated roster. The first row is the header.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("roster: read csv: %w", err)
	}
	return fromRows(rows)
}

// ParseXLSX reads the first sheet of an Excel workbook. The first row is the
// header.
func ParseXLSX(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("roster: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("roster: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("roster: read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}
