// Package crypto seals the wallet mnemonic at rest: scrypt stretches the
// password into an AES-256-GCM key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	ScryptN = 32768 // 2^15
	ScryptR = 8
	ScryptP = 1
	KeyLen  = 32 // AES-256

	saltLen = 32
	version = 2
)

// ErrWrongPassword is returned when the vault cannot be opened
var ErrWrongPassword = errors.New("invalid password")

// KDF holds the scrypt cost parameters stored with the vault
type KDF struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// DefaultKDF is used by NewVault
var DefaultKDF = KDF{N: ScryptN, R: ScryptR, P: ScryptP}

// Vault is the on-disk form of the encrypted mnemonic
type Vault struct {
	Version int    `json:"version"`
	KDF     KDF    `json:"kdf"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

type payload struct {
	Mnemonic string `json:"mnemonic"`
}

// NewVault seals mnemonic under password with DefaultKDF
func NewVault(mnemonic, password string) (*Vault, error) {
	return NewVaultWithKDF(mnemonic, password, DefaultKDF)
}

// NewVaultWithKDF seals mnemonic with explicit scrypt costs
func NewVaultWithKDF(mnemonic, password string, kdf KDF) (*Vault, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(password, salt, kdf)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	plain, err := json.Marshal(payload{Mnemonic: mnemonic})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vault data: %w", err)
	}
	defer clearBytes(plain)

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// the salt is bound as additional data so it cannot be swapped
	return &Vault{
		Version: version,
		KDF:     kdf,
		Salt:    salt,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, plain, salt),
	}, nil
}

// Decrypt opens the vault. A wrong password yields ErrWrongPassword.
func (v *Vault) Decrypt(password string) (string, error) {
	kdf := v.KDF
	if kdf.N == 0 {
		kdf = DefaultKDF
	}
	key, err := deriveKey(password, v.Salt, kdf)
	if err != nil {
		return "", err
	}
	defer clearBytes(key)

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}
	if len(v.Nonce) != aead.NonceSize() {
		return "", fmt.Errorf("corrupt vault: nonce is %d bytes", len(v.Nonce))
	}

	plain, err := aead.Open(nil, v.Nonce, v.Data, v.Salt)
	if err != nil {
		return "", ErrWrongPassword
	}
	defer clearBytes(plain)

	var p payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return "", fmt.Errorf("failed to deserialize vault data: %w", err)
	}
	return p.Mnemonic, nil
}

// ValidatePassword reports whether password opens the vault
func (v *Vault) ValidatePassword(password string) bool {
	_, err := v.Decrypt(password)
	return err == nil
}

// Save writes the vault to path with owner-only permissions
func (v *Vault) Save(path string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	return nil
}

// LoadVault reads a vault written by Save
func LoadVault(path string) (*Vault, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}

	var v Vault
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault: %w", err)
	}
	return &v, nil
}

func deriveKey(password string, salt []byte, kdf KDF) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, kdf.N, kdf.R, kdf.P, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return key, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
