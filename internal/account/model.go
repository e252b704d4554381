package account

import "time"

// Account is the balance projection for one wallet, keyed by the salted
// phone hash. Balance is an integer in the smallest unit (18 decimals),
// carried as a decimal string.
type Account struct {
	IDHash        string    `db:"id_hash" json:"id_hash"`
	DisplayName   string    `db:"display_name" json:"display_name"`
	PinHash       string    `db:"pin_hash" json:"-"`
	WalletAddress string    `db:"wallet_address" json:"wallet_address"`
	Balance       string    `db:"balance" json:"balance"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
