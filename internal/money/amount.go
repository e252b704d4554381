package money

import (
	"errors"
	"math/big"
)

// Amounts are integers in the smallest unit of AFRI (18 decimal places),
// carried as decimal strings end to end so no float ever touches a balance.
const (
	Decimals = 18
	Symbol   = "AFRI"
)

var (
	ErrInvalidAmount = errors.New("amount must be a non-negative integer string")
)

// Parse validates s as a base-10 non-negative integer.
func Parse(s string) (*big.Int, error) {
	if s == "" {
		return nil, ErrInvalidAmount
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	return n, nil
}

// ParsePositive validates s as a strictly positive integer.
func ParsePositive(s string) (*big.Int, error) {
	n, err := Parse(s)
	if err != nil {
		return nil, err
	}
	if n.Sign() == 0 {
		return nil, ErrInvalidAmount
	}
	return n, nil
}

func Add(a, b string) (string, error) {
	x, err := Parse(a)
	if err != nil {
		return "", err
	}
	y, err := Parse(b)
	if err != nil {
		return "", err
	}
	return new(big.Int).Add(x, y).String(), nil
}

// Sub returns a-b, or an error if the result would be negative.
func Sub(a, b string) (string, error) {
	x, err := Parse(a)
	if err != nil {
		return "", err
	}
	y, err := Parse(b)
	if err != nil {
		return "", err
	}
	if x.Cmp(y) < 0 {
		return "", ErrInvalidAmount
	}
	return new(big.Int).Sub(x, y).String(), nil
}

// Cmp compares two amount strings: -1 if a<b, 0 if equal, 1 if a>b.
func Cmp(a, b string) (int, error) {
	x, err := Parse(a)
	if err != nil {
		return 0, err
	}
	y, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return x.Cmp(y), nil
}

func IsPositive(s string) bool {
	_, err := ParsePositive(s)
	return err == nil
}
