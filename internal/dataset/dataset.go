// Package dataset loads the company list driving a batch run: a
// semicolon-separated CSV carrying a NAME column.
package dataset

import (
	"encoding/csv"
	"os"
	"strings"

	"finscout/internal/platform/errors"
)

// Load reads company names from the CSV at path. Duplicate and empty
// names are dropped, order is preserved.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse dataset %s", path)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "dataset %s is empty", path)
	}

	nameCol := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "NAME") {
			nameCol = i
			break
		}
	}
	if nameCol < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "dataset %s has no NAME column", path)
	}

	seen := make(map[string]bool)
	var companies []string
	for _, row := range rows[1:] {
		if nameCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		companies = append(companies, name)
	}

	if len(companies) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "dataset %s lists no companies", path)
	}
	return companies, nil
}
