package wallet

import (
	"context"
	"math/big"
	"time"

	"africoin/internal/account"
	"africoin/internal/ledger"
	"africoin/internal/logger"
	"africoin/internal/metrics"
	"africoin/internal/money"
)

// Auditor periodically verifies that value is conserved: the sum of all
// balances must equal the sum of completed system credits, since transfers
// are zero-sum. The delta is published as a gauge; zero is the only healthy
// value.
type Auditor struct {
	accounts account.Repository
	log      ledger.Repository
}

func NewAuditor(accounts account.Repository, log ledger.Repository) *Auditor {
	return &Auditor{accounts: accounts, log: log}
}

// Check computes credits-minus-balances and publishes it. The delta is
// returned as a decimal string so callers can assert on exact values.
func (a *Auditor) Check(ctx context.Context) (string, error) {
	balances, err := a.accounts.SumBalances(ctx)
	if err != nil {
		return "", err
	}
	credits, err := a.log.SumCompletedCredits(ctx)
	if err != nil {
		return "", err
	}

	minted, err := money.Parse(credits)
	if err != nil {
		return "", err
	}
	held, err := money.Parse(balances)
	if err != nil {
		return "", err
	}
	delta := new(big.Int).Sub(minted, held)

	f, _ := new(big.Float).SetInt(delta).Float64()
	metrics.SetConservationDelta(f)

	if delta.Sign() != 0 {
		logger.Error("value not conserved",
			"credits", credits,
			"balances", balances,
			"delta", delta.String(),
		)
	}

	return delta.String(), nil
}

func (a *Auditor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Check(ctx); err != nil {
				logger.Error("conservation check failed", "error", err)
			}
		}
	}
}
