package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/gagliardetto/solana-go"
)

// Scrypt cost parameters for new keystores. Tests lower them.
var (
	ScryptN = keystore.StandardScryptN
	ScryptP = keystore.StandardScryptP
)

const keystoreVersion = 3

type keystoreFile struct {
	PublicKey string              `json:"publicKey"`
	Crypto    keystore.CryptoJSON `json:"crypto"`
	Version   int                 `json:"version"`
}

// SaveToKeystore encrypts key with passphrase into a version 3 keystore file.
// The parent directory is created with 0700 permissions.
func SaveToKeystore(path string, key solana.PrivateKey, passphrase string) error {
	if len(key) == 0 {
		return errors.New("crypto: nil private key")
	}
	if path == "" {
		return errors.New("crypto: empty keystore path")
	}
	sealed, err := keystore.EncryptDataV3(key, []byte(passphrase), ScryptN, ScryptP)
	if err != nil {
		return fmt.Errorf("crypto: encrypt key: %w", err)
	}
	payload, err := json.MarshalIndent(keystoreFile{
		PublicKey: key.PublicKey().String(),
		Crypto:    sealed,
		Version:   keystoreVersion,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFromKeystore decrypts a keystore written by SaveToKeystore.
func LoadFromKeystore(path, passphrase string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("crypto: empty keystore path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file keystoreFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("crypto: decode keystore %s: %w", path, err)
	}
	if file.Version != keystoreVersion {
		return nil, fmt.Errorf("crypto: unsupported keystore version %d", file.Version)
	}
	plain, err := keystore.DecryptDataV3(file.Crypto, passphrase)
	if err != nil {
		return nil, fmt.Errorf("crypto: decrypt keystore: %w", err)
	}
	key := solana.PrivateKey(plain)
	if key.PublicKey().String() != file.PublicKey {
		return nil, fmt.Errorf("crypto: keystore %s public key mismatch", path)
	}
	return key, nil
}

// KeystorePublicKey reads the public key recorded in a keystore file without
// decrypting it.
func KeystorePublicKey(path string) (solana.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return solana.PublicKey{}, err
	}
	var file keystoreFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return solana.PublicKey{}, fmt.Errorf("crypto: decode keystore %s: %w", path, err)
	}
	return ParsePublicKey(file.PublicKey)
}
