package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"PayEngine/internal/money"
	"PayEngine/internal/record"
)

// RawRecord is the received-but-untyped record from the stream, ready to be
// validated and converted into a record.Record before it reaches the engine.
type RawRecord struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	AckFunc   func() // Call to ACK the message after it was consumed
	NakFunc   func() // Call to NAK on shutdown (will be redelivered)
}

// recordJSON is the wire format for streamed records. Field names use
// snake_case to match upstream producers; amount is a decimal string so the
// producer's precision survives transport.
type recordJSON struct {
	Type   string `json:"type"`
	Client uint16 `json:"client"`
	Tx     uint32 `json:"tx"`
	Amount string `json:"amount,omitempty"`
}

// ParseRawRecord converts a raw stream message into a validated record.
func ParseRawRecord(raw RawRecord) (record.Record, error) {
	var j recordJSON
	if err := json.Unmarshal(raw.Data, &j); err != nil {
		return record.Record{}, fmt.Errorf("parse record: %w", err)
	}

	kind := record.KindFromString(j.Type)
	if kind == record.KindUnknown {
		return record.Record{}, fmt.Errorf("unknown record type %q", j.Type)
	}

	rec := record.Record{
		Kind:   kind,
		Client: record.ClientID(j.Client),
		Tx:     record.TxID(j.Tx),
	}

	if rec.HasAmount() {
		if j.Amount == "" {
			return record.Record{}, fmt.Errorf("%s requires an amount", kind)
		}
		amount, err := money.Parse(j.Amount)
		if err != nil {
			return record.Record{}, fmt.Errorf("parse amount: %w", err)
		}
		if amount.IsNegative() {
			return record.Record{}, fmt.Errorf("amount %s: must not be negative", amount)
		}
		rec.Amount = amount
	}

	return rec, nil
}
