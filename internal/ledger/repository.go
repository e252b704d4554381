package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrDuplicateTransaction = errors.New("transaction hash already recorded")
	ErrTransactionNotFound  = errors.New("transaction not found")
)

const uniqueViolation = "23505"

type SQLRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Append is the only write. Resubmitting a hash hits the primary key, which
// is what makes retried requests safe.
func (r *SQLRepository) Append(ctx context.Context, tx *Transaction) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO transactions (hash, sender_id_hash, recipient_id_hash, amount, type, status, metadata)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING created_at
	`, tx.Hash, tx.SenderIDHash, tx.RecipientIDHash, tx.Amount, tx.Type, tx.Status, tx.Metadata).Scan(&tx.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, hash string) (*Transaction, error) {
	var tx Transaction
	err := r.db.GetContext(ctx, &tx, `
		SELECT hash, sender_id_hash, recipient_id_hash, amount::text AS amount, type, status, metadata, created_at
		FROM transactions
		WHERE hash = $1
	`, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *SQLRepository) ListByAccount(ctx context.Context, idHash string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT hash, sender_id_hash, recipient_id_hash, amount::text AS amount, type, status, metadata, created_at
		FROM transactions
		WHERE sender_id_hash = $1 OR recipient_id_hash = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, idHash, limit, offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// SumCompletedCredits totals completed system credits (mints and top-ups).
// With zero-sum transfers this equals the sum of all balances.
func (r *SQLRepository) SumCompletedCredits(ctx context.Context) (string, error) {
	var total string
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0)::text
		FROM transactions
		WHERE sender_id_hash = $1 AND status = $2
	`, SystemSender, StatusCompleted)
	if err != nil {
		return "", err
	}
	return total, nil
}
