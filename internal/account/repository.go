package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrAccountExists       = errors.New("account already exists")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

const uniqueViolation = "23505"

type SQLRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Get(ctx context.Context, idHash string) (*Account, error) {
	var acct Account
	err := r.db.GetContext(ctx, &acct, `
		SELECT id_hash, display_name, pin_hash, wallet_address, balance::text AS balance, created_at, updated_at
		FROM accounts
		WHERE id_hash = $1
	`, idHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Insert creates the account in a single statement so two concurrent onboards
// for the same phone cannot both succeed; the second hits the primary key.
func (r *SQLRepository) Insert(ctx context.Context, acct *Account) (*Account, error) {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO accounts (id_hash, display_name, pin_hash, wallet_address, balance)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id_hash, display_name, pin_hash, wallet_address, balance::text AS balance, created_at, updated_at
	`, acct.IDHash, acct.DisplayName, acct.PinHash, acct.WalletAddress).StructScan(acct)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	return acct, nil
}

// AdjustBalance applies delta with the non-negativity predicate evaluated in
// the same statement. A lost-update race is impossible: concurrent callers on
// one account serialize on the row and each re-checks the predicate.
func (r *SQLRepository) AdjustBalance(ctx context.Context, idHash, delta string) (string, error) {
	var newBalance string
	err := r.db.QueryRowxContext(ctx, `
		UPDATE accounts
		SET balance = balance + $2::numeric, updated_at = NOW()
		WHERE id_hash = $1 AND balance + $2::numeric >= 0
		RETURNING balance::text
	`, idHash, delta).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return "", r.classifyMiss(ctx, r.db, idHash)
	}
	if err != nil {
		return "", err
	}
	return newBalance, nil
}

// Transfer debits the sender and credits the recipient inside one database
// transaction, so no observer ever sees only the debit. The debit carries the
// sufficient-funds predicate; the first of two racing transfers wins and the
// loser fails the predicate against the post-commit balance.
func (r *SQLRepository) Transfer(ctx context.Context, senderIDHash, recipientIDHash, amount string) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var senderBalance string
	err = tx.QueryRowxContext(ctx, `
		UPDATE accounts
		SET balance = balance - $2::numeric, updated_at = NOW()
		WHERE id_hash = $1 AND balance - $2::numeric >= 0
		RETURNING balance::text
	`, senderIDHash, amount).Scan(&senderBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return "", r.classifyMiss(ctx, tx, senderIDHash)
	}
	if err != nil {
		return "", err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $2::numeric, updated_at = NOW()
		WHERE id_hash = $1
	`, recipientIDHash, amount)
	if err != nil {
		return "", err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if affected == 0 {
		// Rollback undoes the debit.
		return "", ErrAccountNotFound
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return senderBalance, nil
}

func (r *SQLRepository) SumBalances(ctx context.Context) (string, error) {
	var total string
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(balance), 0)::text FROM accounts`)
	if err != nil {
		return "", err
	}
	return total, nil
}

// classifyMiss tells a missing account apart from a failed predicate after a
// guarded update matched no row.
func (r *SQLRepository) classifyMiss(ctx context.Context, q sqlx.QueryerContext, idHash string) error {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id_hash = $1)`, idHash)
	if err != nil {
		return err
	}
	if !exists {
		return ErrAccountNotFound
	}
	return ErrInsufficientBalance
}
