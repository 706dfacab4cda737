package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"github.com/chinmay1088/prism/auth"
	"github.com/chinmay1088/prism/chains/bitcoin"
	"github.com/chinmay1088/prism/chains/ethereum"
	"github.com/chinmay1088/prism/chains/solana"
	"github.com/chinmay1088/prism/crypto"
)

const (
	NetworkMainnet    = "mainnet"
	NetworkTestnet    = "testnet"
	NetworkPreviewnet = "previewnet"

	// Derivation paths (mainnet)
	EthDerivationPath = "m/44'/60'/0'/0/0"
	BtcDerivationPath = "m/84'/0'/0'/0/0"
	SolDerivationPath = "m/44'/501'/0'/0'"

	// Derivation paths for testnet and previewnet
	EthTestnetDerivationPath = "m/44'/1'/0'/0/0"
	BtcTestnetDerivationPath = "m/84'/1'/0'/0/0"
	SolTestnetDerivationPath = "m/44'/501'/0'/1'"

	// SessionDuration is how long an unlock lasts
	SessionDuration = 30 * time.Minute

	VaultFileName  = "wallet.vault"
	UnlockFileName = "unlock.json"
)

var (
	ErrLocked          = errors.New("wallet is locked")
	ErrNoVault         = errors.New("no wallet found, run 'prism init' first")
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)

// Chain selects which key signs the login challenge
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainSolana   Chain = "solana"
	ChainBitcoin  Chain = "bitcoin"
)

// Chains lists every supported chain in display order
var Chains = []Chain{ChainEthereum, ChainSolana, ChainBitcoin}

// ParseChain accepts full names and tickers
func ParseChain(s string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ethereum", "eth", "evm":
		return ChainEthereum, nil
	case "solana", "sol":
		return ChainSolana, nil
	case "bitcoin", "btc":
		return ChainBitcoin, nil
	}
	return "", fmt.Errorf("unsupported chain: %s (use ethereum, solana or bitcoin)", s)
}

// unlockData is the short-lived unlock session on disk
type unlockData struct {
	Mnemonic   string    `json:"mnemonic"`
	Expiration time.Time `json:"expiration"`
}

// Manager owns the vault and derives per-network signers
type Manager struct {
	vaultPath  string
	unlockPath string
	network    string
	kdf        crypto.KDF
	now        func() time.Time

	mu       sync.Mutex
	mnemonic string
	unlocked bool
}

// NewManager creates a manager for the state dir and network. Any network
// other than mainnet derives testnet keys.
func NewManager(dir, network string) *Manager {
	return &Manager{
		vaultPath:  filepath.Join(dir, VaultFileName),
		unlockPath: filepath.Join(dir, UnlockFileName),
		network:    strings.ToLower(network),
		kdf:        crypto.DefaultKDF,
		now:        time.Now,
	}
}

// Initialize creates a wallet with a fresh 24 word mnemonic and unlocks it
func (m *Manager) Initialize(password string) error {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return m.store(mnemonic, password)
}

// ImportFromMnemonic replaces the wallet with an existing mnemonic
func (m *Manager) ImportFromMnemonic(mnemonic, password string) error {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	return m.store(mnemonic, password)
}

func (m *Manager) store(mnemonic, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vault, err := crypto.NewVaultWithKDF(mnemonic, password, m.kdf)
	if err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}
	if err := vault.Save(m.vaultPath); err != nil {
		return fmt.Errorf("failed to save vault: %w", err)
	}

	m.mnemonic = mnemonic
	m.unlocked = true
	if err := m.createSession(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Unlock opens the vault and starts a SessionDuration unlock session. An
// existing live session is reused without checking the password.
func (m *Manager) Unlock(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadSession() {
		return nil
	}

	vault, err := crypto.LoadVault(m.vaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoVault
	}
	if err != nil {
		return fmt.Errorf("failed to load vault: %w", err)
	}

	mnemonic, err := vault.Decrypt(password)
	if err != nil {
		return err
	}

	m.mnemonic = mnemonic
	m.unlocked = true
	if err := m.createSession(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Lock forgets the mnemonic and removes the unlock session
func (m *Manager) Lock() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unlocked = false
	m.mnemonic = ""
	if err := os.Remove(m.unlockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove unlock session: %w", err)
	}
	return nil
}

// IsUnlocked reports whether keys can be derived right now
func (m *Manager) IsUnlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureUnlocked() == nil
}

// GetMnemonic returns the mnemonic of an unlocked wallet
func (m *Manager) GetMnemonic() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureUnlocked(); err != nil {
		return "", err
	}
	return m.mnemonic, nil
}

// VaultExists checks if a vault file exists
func (m *Manager) VaultExists() bool {
	_, err := os.Stat(m.vaultPath)
	return err == nil
}

// Network returns the network keys are derived for
func (m *Manager) Network() string {
	return m.network
}

// IsTestnet is true for every network but mainnet
func (m *Manager) IsTestnet() bool {
	return m.network != NetworkMainnet
}

// EthereumSigner derives the ethereum account of the current network
func (m *Manager) EthereumSigner() (*ethereum.Signer, error) {
	path := EthDerivationPath
	if m.IsTestnet() {
		path = EthTestnetDerivationPath
	}
	key, err := m.deriveSecp256k1(path)
	if err != nil {
		return nil, fmt.Errorf("failed to derive Ethereum key: %w", err)
	}
	return ethereum.NewSigner(key.ToECDSA()), nil
}

// BitcoinSigner derives the native segwit account of the current network
func (m *Manager) BitcoinSigner() (*bitcoin.Signer, error) {
	path, params := BtcDerivationPath, &chaincfg.MainNetParams
	if m.IsTestnet() {
		path, params = BtcTestnetDerivationPath, &chaincfg.TestNet3Params
	}
	key, err := m.deriveSecp256k1(path)
	if err != nil {
		return nil, fmt.Errorf("failed to derive Bitcoin key: %w", err)
	}
	return bitcoin.NewSigner(key, params)
}

// SolanaSigner derives the solana account of the current network
func (m *Manager) SolanaSigner() (*solana.Signer, error) {
	path := SolDerivationPath
	if m.IsTestnet() {
		path = SolTestnetDerivationPath
	}

	seed, err := m.seed()
	if err != nil {
		return nil, err
	}
	key, err := deriveSolanaKey(seed, path)
	if err != nil {
		return nil, fmt.Errorf("failed to derive Solana key: %w", err)
	}
	return solana.NewSigner(key)
}

// Account builds the login context for chain on the current network
func (m *Manager) Account(chain Chain) (auth.Account, error) {
	acct := auth.Account{Network: m.network}

	switch chain {
	case ChainEthereum:
		s, err := m.EthereumSigner()
		if err != nil {
			return acct, err
		}
		acct.Signer, acct.PublicKey = s, s.PublicKey()
	case ChainSolana:
		s, err := m.SolanaSigner()
		if err != nil {
			return acct, err
		}
		acct.Signer, acct.PublicKey = s, s.PublicKey().String()
	case ChainBitcoin:
		s, err := m.BitcoinSigner()
		if err != nil {
			return acct, err
		}
		acct.Signer = s
		acct.PublicKey = fmt.Sprintf("%x", s.PublicKey().SerializeCompressed())
	default:
		return acct, fmt.Errorf("unsupported chain: %s", chain)
	}
	return acct, nil
}

func (m *Manager) deriveSecp256k1(path string) (*btcec.PrivateKey, error) {
	seed, err := m.seed()
	if err != nil {
		return nil, err
	}
	return deriveSecp256k1Key(seed, path)
}

func (m *Manager) seed() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureUnlocked(); err != nil {
		return nil, err
	}
	return bip39.NewSeed(m.mnemonic, ""), nil
}

// ensureUnlocked must be called with mu held
func (m *Manager) ensureUnlocked() error {
	if m.unlocked && m.mnemonic != "" {
		return nil
	}
	if m.loadSession() {
		return nil
	}
	return ErrLocked
}

func (m *Manager) createSession() error {
	data, err := json.Marshal(unlockData{
		Mnemonic:   m.mnemonic,
		Expiration: m.now().Add(SessionDuration),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(m.unlockPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// loadSession picks up a live unlock session left by an earlier command
func (m *Manager) loadSession() bool {
	data, err := os.ReadFile(m.unlockPath)
	if err != nil {
		return false
	}

	var s unlockData
	if err := json.Unmarshal(data, &s); err != nil || m.now().After(s.Expiration) {
		// corrupt or expired
		_ = os.Remove(m.unlockPath)
		return false
	}

	m.mnemonic = s.Mnemonic
	m.unlocked = true
	return true
}
