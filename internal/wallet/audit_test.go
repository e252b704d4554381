package wallet

import (
	"context"
	"errors"
	"testing"

	"africoin/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditorCheck_Conserved(t *testing.T) {
	accounts := new(MockAccountRepo)
	log := new(MockLedgerRepo)

	accounts.On("SumBalances", mock.Anything).Return("300", nil)
	log.On("SumCompletedCredits", mock.Anything).Return("300", nil)

	auditor := NewAuditor(accounts, log)
	delta, err := auditor.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", delta)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.ConservationDelta))
}

func TestAuditorCheck_Drift(t *testing.T) {
	accounts := new(MockAccountRepo)
	log := new(MockLedgerRepo)

	// Value held exceeds value ever credited: something credited a balance
	// without an audit record.
	accounts.On("SumBalances", mock.Anything).Return("350", nil)
	log.On("SumCompletedCredits", mock.Anything).Return("300", nil)

	auditor := NewAuditor(accounts, log)
	delta, err := auditor.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-50", delta)
	assert.Equal(t, float64(-50), testutil.ToFloat64(metrics.ConservationDelta))
}

func TestAuditorCheck_StorageError(t *testing.T) {
	accounts := new(MockAccountRepo)
	log := new(MockLedgerRepo)

	accounts.On("SumBalances", mock.Anything).Return("", errors.New("db down"))

	auditor := NewAuditor(accounts, log)
	_, err := auditor.Check(context.Background())
	assert.Error(t, err)
	log.AssertNotCalled(t, "SumCompletedCredits")
}

func TestAuditorCheck_AfterEngineActivity(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, ledgerView{store}, "100")

	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, "+254700000001", "Amina", "1234")
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, "+254700000002", "Kofi", "5678")
	require.NoError(t, err)

	sender, _ := svc.ResolveIDHash("+254700000001")
	recipient, _ := svc.ResolveIDHash("+254700000002")
	_, err = svc.TopUp(ctx, sender, "40")
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, sender, recipient, "70", "")
	require.NoError(t, err)

	auditor := NewAuditor(store, ledgerView{store})
	delta, err := auditor.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0", delta)
}
