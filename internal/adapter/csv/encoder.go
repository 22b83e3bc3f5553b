package csv

import (
	"cmp"
	"encoding/csv"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerproc/internal/domain"
)

// Header is the output header, in field order.
var Header = []string{"client", "available", "held", "total", "locked"}

// Encoder writes account snapshots as CSV.
type Encoder struct {
	w      *csv.Writer
	sorted bool
}

// NewEncoder creates an Encoder. When sorted is set, rows are ordered by
// client id; otherwise they keep the order they are given in.
func NewEncoder(w io.Writer, sorted bool) *Encoder {
	return &Encoder{w: csv.NewWriter(w), sorted: sorted}
}

// Encode writes the header followed by one row per account.
func (e *Encoder) Encode(accounts []domain.AccountSnapshot) error {
	if e.sorted {
		accounts = slices.Clone(accounts)
		slices.SortFunc(accounts, func(a, b domain.AccountSnapshot) int {
			return cmp.Compare(a.Client, b.Client)
		})
	}

	if err := e.w.Write(Header); err != nil {
		return err
	}

	for _, acc := range accounts {
		row := []string{
			strconv.FormatUint(uint64(acc.Client), 10),
			FormatAmount(acc.Available),
			FormatAmount(acc.Held),
			FormatAmount(acc.Total),
			strconv.FormatBool(acc.Locked),
		}
		if err := e.w.Write(row); err != nil {
			return err
		}
	}

	e.w.Flush()
	return e.w.Error()
}

// FormatAmount renders v as plain decimal text without exponent or rounding.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).String()
}
