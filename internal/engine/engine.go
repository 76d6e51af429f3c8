package engine

import (
	"errors"
	"fmt"
	"io"
	"time"

	"PayEngine/internal/ledger"
	"PayEngine/internal/observability"
	"PayEngine/internal/record"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Source yields validated records in input order. Next returns io.EOF once
// the stream is exhausted; any other error is a structural input failure and
// aborts the run. Malformed rows are the source's problem — it skips and
// reports them, they never reach the engine.
type Source interface {
	Next() (record.Record, error)
}

// Report summarizes one run. Rejections are per-record diagnostics, never
// failures: the snapshot is always produced for whatever was accepted.
type Report struct {
	RunID            uuid.UUID
	Processed        int64
	Accepted         int64
	Rejected         int64
	RejectedByReason map[string]int64
}

// Engine is the single-threaded record processor. It owns the ledger for the
// run's duration and folds records through it strictly in input order —
// order is semantically significant, a dispute before its deposit is a
// different run than the reverse.
type Engine struct {
	runID    uuid.UUID
	ledger   *ledger.Ledger
	metrics  *observability.Metrics
	log      zerolog.Logger
	sequence int64
	report   Report
}

func New(l *ledger.Ledger, metrics *observability.Metrics, log zerolog.Logger) *Engine {
	runID := uuid.New()
	return &Engine{
		runID:   runID,
		ledger:  l,
		metrics: metrics,
		log:     log.With().Str("run_id", runID.String()).Logger(),
		report: Report{
			RunID:            runID,
			RejectedByReason: make(map[string]int64),
		},
	}
}

// RunID identifies this processing run in logs and the report.
func (e *Engine) RunID() uuid.UUID {
	return e.runID
}

// ProcessRecord applies one record to completion. The returned error is the
// ledger's rejection (already accounted for in the report); callers that
// only want the fold can ignore it.
func (e *Engine) ProcessRecord(rec record.Record) error {
	start := time.Now()
	e.sequence++
	e.report.Processed++

	err := e.ledger.Apply(rec)
	if err != nil {
		reason := ledger.Reason(err)
		e.report.Rejected++
		e.report.RejectedByReason[reason]++

		e.log.Debug().
			Str("kind", rec.Kind.String()).
			Uint16("client", uint16(rec.Client)).
			Uint32("tx", uint32(rec.Tx)).
			Str("reason", reason).
			Err(err).
			Msg("record rejected")

		if e.metrics != nil {
			e.metrics.RecordsRejected.WithLabelValues(rec.Kind.String(), reason).Inc()
			e.metrics.EngineSequence.Set(float64(e.sequence))
		}
		return err
	}

	e.report.Accepted++
	e.postCheckInvariants(rec)

	if e.metrics != nil {
		e.metrics.RecordsApplied.WithLabelValues(rec.Kind.String()).Inc()
		e.metrics.RecordDuration.WithLabelValues(rec.Kind.String()).Observe(time.Since(start).Seconds())
		e.metrics.EngineSequence.Set(float64(e.sequence))
		e.metrics.AccountsTracked.Set(float64(e.ledger.AccountCount()))
		e.metrics.DisputesOpen.Set(float64(e.ledger.OpenDisputes()))
		if rec.Kind == record.KindChargeback {
			e.metrics.AccountsLocked.Inc()
		}
	}
	return nil
}

// Run folds the source through the ledger until it is exhausted. Only a
// structural failure of the source itself aborts processing; the report
// covers everything processed up to that point.
func (e *Engine) Run(src Source) (Report, error) {
	for {
		rec, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			e.log.Error().Err(err).Int64("sequence", e.sequence).Msg("input stream failed")
			return e.report, fmt.Errorf("input stream: %w", err)
		}
		e.ProcessRecord(rec)
	}

	e.log.Info().
		Int64("processed", e.report.Processed).
		Int64("accepted", e.report.Accepted).
		Int64("rejected", e.report.Rejected).
		Int("accounts", e.ledger.AccountCount()).
		Msg("run complete")
	return e.report, nil
}

// Report returns the running totals so far.
func (e *Engine) Report() Report {
	return e.report
}

// Snapshot produces the final ordered account views.
func (e *Engine) Snapshot() []ledger.AccountView {
	start := time.Now()
	views := e.ledger.Snapshot()

	if e.metrics != nil {
		e.metrics.SnapshotAccounts.Set(float64(len(views)))
		e.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	}
	return views
}

// postCheckInvariants validates account invariants after an accepted record.
// A failure here is a defect in the state machine, not a business outcome,
// so it is fatal rather than silently absorbed. Available may go negative
// only through a dispute of already-spent funds, so the non-negativity check
// runs after deposits and withdrawals only.
func (e *Engine) postCheckInvariants(rec record.Record) {
	switch rec.Kind {
	case record.KindDeposit, record.KindWithdrawal:
		if err := e.ledger.ValidateAvailableNonNegative(rec.Client); err != nil {
			panic(fmt.Sprintf("FATAL: invariant violated after %s tx %d: %v", rec.Kind, rec.Tx, err))
		}
	}
	if err := e.ledger.ValidateHeldNonNegative(rec.Client); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated after %s tx %d: %v", rec.Kind, rec.Tx, err))
	}
	if err := e.ledger.ValidateTotal(rec.Client); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated after %s tx %d: %v", rec.Kind, rec.Tx, err))
	}
}
