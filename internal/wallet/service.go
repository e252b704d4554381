package wallet

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"africoin/internal/account"
	"africoin/internal/identity"
	"africoin/internal/ledger"
	"africoin/internal/logger"
	"africoin/internal/money"
)

// IdentityHasher maps a phone number to its opaque account key.
type IdentityHasher interface {
	Hash(phone string) (string, error)
}

// PinHasher wraps the slow-hash primitive for PIN credentials.
type PinHasher interface {
	Hash(pin string) (string, error)
	Verify(pinHash, pin string) bool
}

// Notifier receives completed transactions for out-of-band delivery. It must
// never block or fail the calling operation.
type Notifier interface {
	TransactionCompleted(ctx context.Context, tx *ledger.Transaction)
}

type OnboardResult struct {
	IDHash        string `json:"id_hash"`
	WalletAddress string `json:"wallet_address"`
}

type BalanceResult struct {
	Balance  string `json:"balance"`
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
}

type TransferResult struct {
	NewBalance      string `json:"new_balance"`
	TransactionHash string `json:"transaction_hash"`
	AlreadyApplied  bool   `json:"already_applied,omitempty"`
}

type Service interface {
	CreateAccount(ctx context.Context, phone, displayName, pin string) (*OnboardResult, error)
	Mint(ctx context.Context, idHash, amount, reason string) (string, error)
	TopUp(ctx context.Context, idHash, amount string) (string, error)
	Transfer(ctx context.Context, senderIDHash, recipientIDHash, amount, txHash string) (*TransferResult, error)
	GetBalance(ctx context.Context, idHash string) (*BalanceResult, error)
	VerifyPin(ctx context.Context, idHash, pin string) error
	History(ctx context.Context, idHash string, limit, offset int) ([]ledger.Transaction, error)
	ResolveIDHash(phoneOrIDHash string) (string, error)
}

type service struct {
	accounts    account.Repository
	log         ledger.Repository
	ids         IdentityHasher
	pins        PinHasher
	notifier    Notifier
	initialMint string
}

func NewService(accounts account.Repository, log ledger.Repository, ids IdentityHasher, pins PinHasher, notifier Notifier, initialMint string) (Service, error) {
	if initialMint == "" {
		initialMint = "0"
	}
	if _, err := money.Parse(initialMint); err != nil {
		return nil, fmt.Errorf("invalid initial mint amount %q: %w", initialMint, err)
	}
	return &service{
		accounts:    accounts,
		log:         log,
		ids:         ids,
		pins:        pins,
		notifier:    notifier,
		initialMint: initialMint,
	}, nil
}

func (s *service) CreateAccount(ctx context.Context, phone, displayName, pin string) (*OnboardResult, error) {
	idHash, err := s.ids.Hash(phone)
	if err != nil {
		return nil, err
	}

	pinHash, err := s.pins.Hash(pin)
	if err != nil {
		return nil, fmt.Errorf("hashing pin: %w", err)
	}

	address, err := identity.NewWalletAddress()
	if err != nil {
		return nil, fmt.Errorf("generating wallet address: %w", err)
	}

	acct := &account.Account{
		IDHash:        idHash,
		DisplayName:   displayName,
		PinHash:       pinHash,
		WalletAddress: address,
	}
	if _, err := s.accounts.Insert(ctx, acct); err != nil {
		return nil, err
	}

	if money.IsPositive(s.initialMint) {
		if _, err := s.credit(ctx, idHash, s.initialMint, ledger.TypeMint, ledger.Metadata{"reason": "initial_mint"}); err != nil {
			// The account exists but holds nothing; the caller can retry a
			// mint, and no value is left without an audit record.
			logger.Error("initial mint failed", "id_hash", idHash, "error", err)
			return nil, fmt.Errorf("initial mint: %w", err)
		}
	}

	return &OnboardResult{IDHash: idHash, WalletAddress: address}, nil
}

func (s *service) Mint(ctx context.Context, idHash, amount, reason string) (string, error) {
	meta := ledger.Metadata{}
	if reason != "" {
		meta["reason"] = reason
	}
	return s.credit(ctx, idHash, amount, ledger.TypeMint, meta)
}

func (s *service) TopUp(ctx context.Context, idHash, amount string) (string, error) {
	return s.credit(ctx, idHash, amount, ledger.TypeTopUp, nil)
}

// credit applies a system credit and its audit record as one logical unit:
// if the append fails the balance change is reversed.
func (s *service) credit(ctx context.Context, idHash, amount, txType string, meta ledger.Metadata) (string, error) {
	if !money.IsPositive(amount) {
		return "", ErrInvalidAmount
	}

	newBalance, err := s.accounts.AdjustBalance(ctx, idHash, amount)
	if err != nil {
		return "", err
	}

	tx := &ledger.Transaction{
		Hash:            newTransactionHash(),
		SenderIDHash:    ledger.SystemSender,
		RecipientIDHash: idHash,
		Amount:          amount,
		Type:            txType,
		Status:          ledger.StatusCompleted,
		Metadata:        meta,
	}
	if err := s.log.Append(ctx, tx); err != nil {
		if _, revErr := s.accounts.AdjustBalance(ctx, idHash, "-"+amount); revErr != nil {
			logger.Error("credit reversal failed", "id_hash", idHash, "amount", amount, "error", revErr)
		}
		return "", fmt.Errorf("recording %s: %w", txType, err)
	}

	s.notify(ctx, tx)
	return newBalance, nil
}

func (s *service) Transfer(ctx context.Context, senderIDHash, recipientIDHash, amount, txHash string) (*TransferResult, error) {
	if !money.IsPositive(amount) {
		return nil, ErrInvalidAmount
	}
	if senderIDHash == recipientIDHash {
		return nil, ErrSelfTransfer
	}

	// A client-supplied hash is an idempotency key: if it is already in the
	// log the movement happened, so report it without touching balances.
	if txHash != "" {
		if existing, err := s.log.Get(ctx, txHash); err == nil {
			return s.alreadyApplied(ctx, senderIDHash, existing)
		}
	} else {
		txHash = newTransactionHash()
	}

	newBalance, err := s.accounts.Transfer(ctx, senderIDHash, recipientIDHash, amount)
	if err != nil {
		return nil, err
	}

	tx := &ledger.Transaction{
		Hash:            txHash,
		SenderIDHash:    senderIDHash,
		RecipientIDHash: recipientIDHash,
		Amount:          amount,
		Type:            ledger.TypeTransfer,
		Status:          ledger.StatusCompleted,
	}
	if err := s.log.Append(ctx, tx); err != nil {
		// Undo both legs before surfacing anything; a transfer is never
		// left half-recorded.
		if _, revErr := s.accounts.Transfer(ctx, recipientIDHash, senderIDHash, amount); revErr != nil {
			logger.Error("transfer reversal failed", "hash", txHash, "error", revErr)
			return nil, fmt.Errorf("recording transfer: %w", err)
		}
		if existing, getErr := s.log.Get(ctx, txHash); getErr == nil {
			return s.alreadyApplied(ctx, senderIDHash, existing)
		}
		return nil, fmt.Errorf("recording transfer: %w", err)
	}

	logger.Info("transfer completed", "hash", txHash, "amount", amount)
	s.notify(ctx, tx)

	return &TransferResult{NewBalance: newBalance, TransactionHash: txHash}, nil
}

func (s *service) alreadyApplied(ctx context.Context, senderIDHash string, tx *ledger.Transaction) (*TransferResult, error) {
	acct, err := s.accounts.Get(ctx, senderIDHash)
	if err != nil {
		return nil, err
	}
	return &TransferResult{
		NewBalance:      acct.Balance,
		TransactionHash: tx.Hash,
		AlreadyApplied:  true,
	}, nil
}

func (s *service) GetBalance(ctx context.Context, idHash string) (*BalanceResult, error) {
	acct, err := s.accounts.Get(ctx, idHash)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{
		Balance:  acct.Balance,
		Decimals: money.Decimals,
		Symbol:   money.Symbol,
	}, nil
}

func (s *service) VerifyPin(ctx context.Context, idHash, pin string) error {
	acct, err := s.accounts.Get(ctx, idHash)
	if err != nil {
		return err
	}
	if !s.pins.Verify(acct.PinHash, pin) {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *service) History(ctx context.Context, idHash string, limit, offset int) ([]ledger.Transaction, error) {
	if _, err := s.accounts.Get(ctx, idHash); err != nil {
		return nil, err
	}
	return s.log.ListByAccount(ctx, idHash, limit, offset)
}

var idHashShape = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ResolveIDHash accepts either a phone number or an already-derived account
// key, as the transfer endpoint allows both.
func (s *service) ResolveIDHash(phoneOrIDHash string) (string, error) {
	trimmed := strings.TrimSpace(phoneOrIDHash)
	if idHashShape.MatchString(trimmed) {
		return trimmed, nil
	}
	return s.ids.Hash(trimmed)
}

func (s *service) notify(ctx context.Context, tx *ledger.Transaction) {
	if s.notifier != nil {
		s.notifier.TransactionCompleted(ctx, tx)
	}
}

func newTransactionHash() string {
	return "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
