package identity

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidPhone = errors.New("phone number cannot be normalized")

	e164 = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
)

// Hasher derives opaque account keys from phone numbers. The same salt must
// be used for the lifetime of a deployment or existing accounts become
// unreachable.
type Hasher struct {
	salt []byte
}

func NewHasher(salt string) *Hasher {
	return &Hasher{salt: []byte(salt)}
}

// NormalizePhone strips spacing and punctuation and checks the result is an
// E.164 number: leading +, country code, 8-15 digits total.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separators are dropped
		default:
			return "", ErrInvalidPhone
		}
	}

	normalized := b.String()
	if !e164.MatchString(normalized) {
		return "", ErrInvalidPhone
	}
	return normalized, nil
}

// Hash normalizes the phone and returns its salted one-way key. Raw phone
// numbers are never used as storage keys.
func (h *Hasher) Hash(phone string) (string, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, h.salt)
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// NewWalletAddress returns a random 0x-prefixed display reference for a new
// account. It is not a real on-chain address.
func NewWalletAddress() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(buf), nil
}
