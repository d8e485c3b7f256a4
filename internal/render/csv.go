package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/comptes-dev/comptes/internal/model"
)

// Format selects how the list command prints accounts.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, csv or json)", s)
	}
}

// CSVHeader is the header row of WriteAccounts.
var CSVHeader = []string{"id", "solde", "dateCreation", "type"}

const (
	numFields = 4
	colID     = 0
	colSolde  = 1
	colDate   = 2
	colType   = 3
)

// RowReader reads account rows one at a time, skipping the header. A
// malformed row is reported when it is reached, after the rows before it.
type RowReader struct {
	cr      *csv.Reader
	row     int
	started bool
}

// NewRowReader reads CSV in the WriteAccounts layout from r.
func NewRowReader(r io.Reader) *RowReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &RowReader{cr: cr}
}

// Row is the 1-based file row of the last record returned by Next.
func (r *RowReader) Row() int { return r.row }

// Next returns the raw fields of the next data row, or io.EOF.
func (r *RowReader) Next() ([]string, error) {
	if !r.started {
		r.started = true
		if _, err := r.cr.Read(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading header: %w", err)
		}
		r.row = 1
	}

	rec, err := r.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	r.row++
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", r.row, err)
	}
	if len(rec) != numFields {
		return nil, fmt.Errorf("row %d: expected %d fields, got %d", r.row, numFields, len(rec))
	}
	return rec, nil
}

// Field returns the trimmed value of the named column of rec.
func Field(rec []string, name string) string {
	for i, h := range CSVHeader {
		if h == name && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
	}
	return ""
}

// ReadAccounts reads accounts written by WriteAccounts. The id column may be
// empty for rows that have not been created yet.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	rr := NewRowReader(r)
	var accounts []model.Account
	for {
		rec, err := rr.Next()
		if err == io.EOF {
			return accounts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading accounts CSV: %w", err)
		}
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rr.Row(), err)
		}
		accounts = append(accounts, acct)
	}
}

// WriteAccounts writes accounts as CSV with a header row.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID.String()
	row[colSolde] = acct.Balance.String()
	row[colDate] = acct.CreationDate.String()
	row[colType] = string(acct.Type)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	solde, err := decimal.NewFromString(strings.TrimSpace(record[colSolde]))
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing solde %q: %w", record[colSolde], err)
	}

	date, err := model.ParseDate(record[colDate])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing dateCreation %q: %w", record[colDate], err)
	}

	typ := model.DefaultAccountType
	if strings.TrimSpace(record[colType]) != "" {
		typ, err = model.ParseAccountType(record[colType])
		if err != nil {
			return model.Account{}, err
		}
	}

	return model.Account{
		ID:           model.ID(strings.TrimSpace(record[colID])),
		Balance:      solde,
		CreationDate: date,
		Type:         typ,
	}, nil
}

// WriteJSON writes accounts as an indented JSON array in wire form.
func WriteJSON(w io.Writer, accounts []model.Account) error {
	if accounts == nil {
		accounts = []model.Account{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(accounts); err != nil {
		return fmt.Errorf("encoding accounts: %w", err)
	}
	return nil
}
