package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fastprodman/payments-engine/internal/services/accounts"
	"github.com/fastprodman/payments-engine/internal/services/engine"
)

var summaryHeader = []string{"client", "available", "held", "total", "locked"}

// Writer renders account snapshots as CSV with fixed four-decimal amounts.
type Writer struct {
	csv *csv.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteAll writes the header followed by one row per snapshot and flushes.
func (w *Writer) WriteAll(snapshots []accounts.Snapshot) error {
	err := w.csv.Write(summaryHeader)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range snapshots {
		err = w.csv.Write([]string{
			strconv.FormatUint(uint64(s.ClientID), 10),
			s.Available.StringFixed(engine.AmountPrecision),
			s.Held.StringFixed(engine.AmountPrecision),
			s.Total.StringFixed(engine.AmountPrecision),
			strconv.FormatBool(s.Locked),
		})
		if err != nil {
			return fmt.Errorf("write client %d: %w", s.ClientID, err)
		}
	}

	w.csv.Flush()

	err = w.csv.Error()
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	return nil
}
