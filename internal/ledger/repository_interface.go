package ledger

import "context"

type Repository interface {
	Append(ctx context.Context, tx *Transaction) error
	Get(ctx context.Context, hash string) (*Transaction, error)
	ListByAccount(ctx context.Context, idHash string, limit, offset int) ([]Transaction, error)
	SumCompletedCredits(ctx context.Context) (string, error)
}
