package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Sender key for value created by the system rather than another account.
const SystemSender = "system"

const (
	TypeMint     = "mint"
	TypeTransfer = "transfer"
	TypeTopUp    = "topup"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Transaction is one immutable entry in the audit trail. Hash doubles as the
// idempotency key: the same hash can never be appended twice.
type Transaction struct {
	Hash            string    `db:"hash" json:"hash"`
	SenderIDHash    string    `db:"sender_id_hash" json:"sender_id_hash"`
	RecipientIDHash string    `db:"recipient_id_hash" json:"recipient_id_hash"`
	Amount          string    `db:"amount" json:"amount"`
	Type            string    `db:"type" json:"type"`
	Status          string    `db:"status" json:"status"`
	Metadata        Metadata  `db:"metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Metadata is an opaque key/value bag stored as JSONB.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported metadata source type")
	}
}
