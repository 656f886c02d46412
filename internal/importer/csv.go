package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// table is a header-addressed view over a CSV file.
type table struct {
	reader  *csv.Reader
	columns map[string]int
	line    int
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// openTable reads the header row and checks that every required column is
// present. A missing column fails the whole file.
func openTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, common.ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	t := &table{reader: cr, columns: make(map[string]int, len(header)), line: 1}
	for i, h := range header {
		t.columns[normalizeHeader(h)] = i
	}
	for _, name := range required {
		if _, ok := t.columns[normalizeHeader(name)]; !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrMissingColumn, name)
		}
	}
	return t, nil
}

// next returns the following record, or io.EOF.
func (t *table) next() ([]string, error) {
	for {
		rec, err := t.reader.Read()
		if err != nil {
			return nil, err
		}
		t.line++
		if isBlank(rec) {
			continue
		}
		return rec, nil
	}
}

// get returns a trimmed cell by column name; absent columns read as "".
func (t *table) get(rec []string, column string) string {
	i, ok := t.columns[normalizeHeader(column)]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/06",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q: unrecognized format", s)
}

// parseAmount accepts plain decimals plus "$1,234.56" and "(12.00)" forms.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = clean[1 : len(clean)-1]
	}

	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}
