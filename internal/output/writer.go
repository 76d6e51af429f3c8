package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"PayEngine/internal/ledger"
)

// WriteSnapshot renders account views as CSV: one row per client, every
// numeric field at exactly 4 fractional digits. The views are written in the
// order given; Ledger.Snapshot already orders them by client id ascending.
func WriteSnapshot(w io.Writer, views []ledger.AccountView) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, v := range views {
		row := []string{
			strconv.FormatUint(uint64(v.Client), 10),
			v.Available.String(),
			v.Held.String(),
			v.Total.String(),
			strconv.FormatBool(v.Locked),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write client %d: %w", v.Client, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
