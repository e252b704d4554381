package account

import "context"

type Repository interface {
	Get(ctx context.Context, idHash string) (*Account, error)
	Insert(ctx context.Context, acct *Account) (*Account, error)
	AdjustBalance(ctx context.Context, idHash, delta string) (string, error)
	Transfer(ctx context.Context, senderIDHash, recipientIDHash, amount string) (string, error)
	SumBalances(ctx context.Context) (string, error)
}
