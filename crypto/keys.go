package crypto

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var errEmptyKey = errors.New("crypto: empty key")

// GeneratePrivateKey returns a fresh ed25519 signing key.
func GeneratePrivateKey() (solana.PrivateKey, error) {
	return solana.NewRandomPrivateKey()
}

// ParsePublicKey decodes a base58 account address.
func ParsePublicKey(raw string) (solana.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return solana.PublicKey{}, errEmptyKey
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("crypto: invalid public key %q: %w", raw, err)
	}
	return key, nil
}

// ParsePrivateKey decodes a base58 ed25519 secret key.
func ParsePrivateKey(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errEmptyKey
	}
	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid private key: %w", err)
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("crypto: private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(key))
	}
	return key, nil
}
