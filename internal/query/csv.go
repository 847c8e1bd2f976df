package query

import (
	"encoding/csv"
	"errors"
	"io"
	"time"

	"github.com/simplebank/simplebank/internal/models"
)

// CSVHeader is the canonical export header. Import accepts these column
// names (case-sensitive) in any order.
var CSVHeader = []string{"date", "amount", "currency", "category", "description", "status"}

// ErrNoHeader is returned when an imported CSV has no readable header row.
var ErrNoHeader = errors.New("csv has no header row")

// EncodeCSV writes transactions in the canonical CSV format. Dates are the
// creation timestamps in RFC3339 UTC; an empty category is exported as the
// literal "Uncategorized". Quoting follows RFC 4180 (encoding/csv).
func EncodeCSV(w io.Writer, items []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i := range items {
		t := &items[i]
		record := []string{
			t.CreatedAt.Time().Format(time.RFC3339),
			t.Amount.String(),
			t.Currency,
			t.DisplayCategory(),
			t.Description,
			t.Status,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportRow is a single parsed CSV row, ready for insertion.
type ImportRow struct {
	Amount      models.Money
	Currency    string
	Category    string
	Description string
	Status      string

	// Date is the explicit creation timestamp (Unix seconds), or 0 when the
	// row carried none and the store should assign insertion time.
	Date int64
}

// ParseCSV reads a header-mapped CSV and returns the rows that parsed
// successfully plus the count of rows skipped. A row is skipped when its
// amount is missing or non-numeric, or when the line itself is malformed;
// one bad row never aborts the batch. Defaults per row: currency "ZAR",
// status "completed" (also applied when the status value is not a known
// one).
func ParseCSV(r io.Reader) (rows []ImportRow, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, ErrNoHeader
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	cell := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line (stray quote, etc.) — skip, keep going.
			skipped++
			continue
		}

		amount, err := models.ParseAmount(cell(record, "amount"))
		if err != nil {
			skipped++
			continue
		}

		row := ImportRow{
			Amount:      amount,
			Currency:    cell(record, "currency"),
			Category:    cell(record, "category"),
			Description: cell(record, "description"),
			Status:      cell(record, "status"),
		}
		if row.Currency == "" {
			row.Currency = models.DefaultCurrency
		}
		if !models.ValidStatus(row.Status) {
			row.Status = models.StatusCompleted
		}
		if row.Category == models.Uncategorized {
			// Round-trip: the export label folds back into "no category".
			row.Category = ""
		}
		if date := cell(record, "date"); date != "" {
			if ts, err := ParseDate(date, false); err == nil {
				row.Date = ts
			}
		}

		rows = append(rows, row)
	}

	return rows, skipped, nil
}
