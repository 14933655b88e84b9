// Package csvio reads transaction records from CSV and writes account
// summaries back as CSV.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/payments-engine/internal/services/engine"
)

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrMissingColumn   = errors.New("missing column")
)

// maxAmountDigits bounds the length of an amount field.
const maxAmountDigits = 64

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

var _ engine.Source = (*Reader)(nil)

// Reader yields engine records from a CSV stream with a header row.
// Fields are trimmed and rows may omit the trailing amount column.
type Reader struct {
	csv    *csv.Reader
	cols   map[string]int
	line   int
	header bool
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &Reader{csv: cr}
}

// Line returns the input line of the last record read.
func (r *Reader) Line() int { return r.line }

// Next returns the next record or io.EOF.
func (r *Reader) Next() (engine.Record, error) {
	if !r.header {
		err := r.readHeader()
		if err != nil {
			return engine.Record{}, err
		}
	}

	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return engine.Record{}, io.EOF
		}

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return engine.Record{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}

		return engine.Record{}, fmt.Errorf("read csv: %w", err)
	}

	r.line, _ = r.csv.FieldPos(0)

	if blankRow(row) {
		return r.Next()
	}

	rec, err := r.parse(row)
	if err != nil {
		return engine.Record{}, fmt.Errorf("line %d: %w: %w", r.line, ErrMalformedRecord, err)
	}

	return rec, nil
}

func (r *Reader) readHeader() error {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}

		return fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(row))
	for i, name := range row {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range []string{colType, colClient, colTx} {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("read header: %w: %q", ErrMissingColumn, name)
		}
	}

	r.cols = cols
	r.header = true

	return nil
}

func (r *Reader) field(row []string, name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}

func (r *Reader) parse(row []string) (engine.Record, error) {
	client, err := strconv.ParseUint(r.field(row, colClient), 10, 16)
	if err != nil {
		return engine.Record{}, fmt.Errorf("client: %w", err)
	}

	tx, err := strconv.ParseUint(r.field(row, colTx), 10, 32)
	if err != nil {
		return engine.Record{}, fmt.Errorf("tx: %w", err)
	}

	rec := engine.Record{
		Kind:     engine.Kind(r.field(row, colType)),
		ClientID: uint16(client),
		TxID:     uint32(tx),
	}

	raw := r.field(row, colAmount)
	if raw != "" {
		amount, err := parseAmount(raw)
		if err != nil {
			return engine.Record{}, fmt.Errorf("amount: %w", err)
		}

		rec.Amount = &amount
	}

	return rec, nil
}

// parseAmount accepts plain decimal notation only.
func parseAmount(raw string) (decimal.Decimal, error) {
	if strings.ContainsAny(raw, "eE") {
		return decimal.Decimal{}, fmt.Errorf("exponent notation not allowed: %q", raw)
	}

	if len(raw) > maxAmountDigits {
		return decimal.Decimal{}, fmt.Errorf("longer than %d characters", maxAmountDigits)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return amount, nil
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}

	return true
}
