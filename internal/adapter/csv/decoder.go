package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerproc/internal/domain"
	"github.com/iho/ledgerproc/internal/usecase"
)

// Decoder errors
var (
	ErrMissingColumn = errors.New("required column missing from header")
	ErrInvalidField  = errors.New("invalid field value")
)

// Column names recognized in the header, compared case-insensitively.
const (
	ColumnType      = "type"
	ColumnTransType = "trans_type"
	ColumnClient    = "client"
	ColumnTx        = "tx"
	ColumnAmount    = "amount"
)

// RowError is a failure to decode a single input row. The row is skipped
// and decoding continues with the next one.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Skippable marks RowError as a non-fatal ingestion error.
func (e *RowError) Skippable() bool {
	return true
}

type columns struct {
	kind, client, tx, amount int
}

// Decoder reads ledger entries from CSV input with a header row.
type Decoder struct {
	r       *csv.Reader
	cols    columns
	started bool
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &Decoder{r: cr}
}

// Next returns the next entry. It returns io.EOF at the end of input and a
// *RowError for rows that cannot be decoded.
func (d *Decoder) Next() (domain.Entry, error) {
	if !d.started {
		if err := d.readHeader(); err != nil {
			return nil, err
		}
		d.started = true
	}

	record, err := d.r.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &RowError{Line: parseErr.StartLine, Err: err}
		}
		return nil, err
	}

	line, _ := d.r.FieldPos(0)

	entry, err := d.decode(record)
	if err != nil {
		return nil, &RowError{Line: line, Err: err}
	}

	return entry, nil
}

func (d *Decoder) readHeader() error {
	header, err := d.r.Read()
	if err != nil {
		return err
	}

	cols := columns{kind: -1, client: -1, tx: -1, amount: -1}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColumnType, ColumnTransType:
			cols.kind = i
		case ColumnClient:
			cols.client = i
		case ColumnTx:
			cols.tx = i
		case ColumnAmount:
			cols.amount = i
		}
	}

	switch {
	case cols.kind < 0:
		return fmt.Errorf("%w: %s", ErrMissingColumn, ColumnType)
	case cols.client < 0:
		return fmt.Errorf("%w: %s", ErrMissingColumn, ColumnClient)
	case cols.tx < 0:
		return fmt.Errorf("%w: %s", ErrMissingColumn, ColumnTx)
	}

	d.cols = cols
	return nil
}

func (d *Decoder) decode(record []string) (domain.Entry, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	kind, err := domain.ParseKind(field(d.cols.kind))
	if err != nil {
		return nil, err
	}

	client, err := strconv.ParseUint(field(d.cols.client), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: client %q", ErrInvalidField, field(d.cols.client))
	}

	tx, err := strconv.ParseUint(field(d.cols.tx), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: tx %q", ErrInvalidField, field(d.cols.tx))
	}

	var amount *float64
	if raw := field(d.cols.amount); raw != "" {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q", ErrInvalidField, raw)
		}
		f := value.InexactFloat64()
		if math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: amount %q out of range", ErrInvalidField, raw)
		}
		amount = &f
	}

	return domain.NewEntry(kind, domain.ClientID(client), domain.TxID(tx), amount)
}

var _ usecase.EntrySource = (*Decoder)(nil)
