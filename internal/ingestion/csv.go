package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"PayEngine/internal/money"
	"PayEngine/internal/observability"
	"PayEngine/internal/record"

	"github.com/rs/zerolog"
)

// CSVSource lazily reads transaction records from `type, client, tx, amount`
// rows. It is single-pass: each row is parsed on demand, validated, and
// either yielded or dropped with a diagnostic. Only a structural failure of
// the underlying stream surfaces as an error from Next.
type CSVSource struct {
	reader    *csv.Reader
	log       zerolog.Logger
	metrics   *observability.Metrics
	line      int64
	malformed int64
	sawHeader bool
}

func NewCSVSource(r io.Reader, metrics *observability.Metrics, log zerolog.Logger) *CSVSource {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// Dispute, resolve and chargeback rows may omit the amount column.
	cr.FieldsPerRecord = -1

	return &CSVSource{
		reader:  cr,
		log:     log,
		metrics: metrics,
	}
}

// Next returns the next valid record, skipping malformed rows, or io.EOF at
// end of input.
func (s *CSVSource) Next() (record.Record, error) {
	for {
		row, err := s.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return record.Record{}, io.EOF
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// Bad quoting etc. is a row-level defect, not a stream
				// failure: report and keep reading.
				s.dropRow(int64(parseErr.Line), err)
				continue
			}
			return record.Record{}, fmt.Errorf("read csv: %w", err)
		}
		s.line++

		if s.line == 1 && isHeader(row) {
			s.sawHeader = true
			continue
		}

		rec, err := recordFromRow(row)
		if err != nil {
			s.dropRow(s.line, err)
			continue
		}
		return rec, nil
	}
}

// Malformed returns the number of rows dropped so far.
func (s *CSVSource) Malformed() int64 {
	return s.malformed
}

func (s *CSVSource) dropRow(line int64, err error) {
	s.malformed++
	s.log.Warn().Int64("line", line).Err(err).Msg("malformed row dropped")
	if s.metrics != nil {
		s.metrics.RecordsMalformed.Inc()
	}
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "type")
}

func recordFromRow(row []string) (record.Record, error) {
	if len(row) < 3 {
		return record.Record{}, fmt.Errorf("expected at least 3 fields, got %d", len(row))
	}

	kind := record.KindFromString(strings.TrimSpace(row[0]))
	if kind == record.KindUnknown {
		return record.Record{}, fmt.Errorf("unknown record type %q", strings.TrimSpace(row[0]))
	}

	client, err := strconv.ParseUint(strings.TrimSpace(row[1]), 10, 16)
	if err != nil {
		return record.Record{}, fmt.Errorf("client id: %w", err)
	}
	tx, err := strconv.ParseUint(strings.TrimSpace(row[2]), 10, 32)
	if err != nil {
		return record.Record{}, fmt.Errorf("tx id: %w", err)
	}

	rec := record.Record{
		Kind:   kind,
		Client: record.ClientID(client),
		Tx:     record.TxID(tx),
	}

	if rec.HasAmount() {
		if len(row) < 4 || strings.TrimSpace(row[3]) == "" {
			return record.Record{}, fmt.Errorf("%s requires an amount", kind)
		}
		amount, err := money.Parse(row[3])
		if err != nil {
			return record.Record{}, fmt.Errorf("amount: %w", err)
		}
		if amount.IsNegative() {
			return record.Record{}, fmt.Errorf("amount %s: must not be negative", amount)
		}
		rec.Amount = amount
	}

	return rec, nil
}
