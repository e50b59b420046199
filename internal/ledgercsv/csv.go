package ledgercsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"budgat/internal/core"
)

// Header is the flat-file header row. The column names are the Dutch bank
// export convention: when, what, how much, category, remark.
const Header = "WANNEER,WAT,HOEVEEL,CATEGORIE,OPMERKING"

const (
	numFields = 5
	colDate   = 0
	colDesc   = 1
	colAmount = 2
	colCat    = 3
	colRemark = 4
)

// Read parses a ledger export. The header row is skipped. Rows with fewer
// than four fields are dropped without error; a malformed date or amount in
// a surviving row fails the whole read so a broken file never half-imports.
func Read(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var txs []core.Transaction
	for i, rec := range records[1:] {
		if len(rec) < numFields-1 {
			continue
		}
		tx, err := unmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Write emits the header plus one row per transaction, newest date first.
func Write(w io.Writer, txs []core.Transaction) error {
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range sorted {
		if err := cw.Write(marshalRow(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

func marshalRow(tx core.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = tx.Date.String()
	row[colDesc] = tx.Description
	row[colAmount] = tx.Amount.String()
	row[colCat] = tx.Category
	row[colRemark] = tx.Remark
	return row
}

func unmarshalRow(rec []string) (core.Transaction, error) {
	date, err := core.ParseDate(rec[colDate])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
	}

	// Bank exports write decimals with a comma; ParseAmount normalizes.
	amount, err := core.ParseAmount(rec[colAmount])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parsing amount %q: %w", rec[colAmount], err)
	}

	tx := core.Transaction{
		Date:        date,
		Description: rec[colDesc],
		Amount:      amount,
		Category:    rec[colCat],
	}
	if len(rec) > colRemark {
		tx.Remark = rec[colRemark]
	}
	return tx, nil
}
