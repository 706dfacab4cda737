package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// cheap costs keep the tests fast
var testKDF = KDF{N: 1024, R: 8, P: 1}

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestVaultRoundTrip(t *testing.T) {
	v, err := NewVaultWithKDF(testMnemonic, "hunter2", testKDF)
	require.NoError(t, err)
	require.Equal(t, version, v.Version)
	require.NotContains(t, string(v.Data), "abandon")

	got, err := v.Decrypt("hunter2")
	require.NoError(t, err)
	require.Equal(t, testMnemonic, got)
	require.True(t, v.ValidatePassword("hunter2"))
}

func TestVaultWrongPassword(t *testing.T) {
	v, err := NewVaultWithKDF(testMnemonic, "hunter2", testKDF)
	require.NoError(t, err)

	_, err = v.Decrypt("hunter3")
	require.ErrorIs(t, err, ErrWrongPassword)
	require.False(t, v.ValidatePassword(""))
}

func TestVaultTamperedSalt(t *testing.T) {
	v, err := NewVaultWithKDF(testMnemonic, "pw", testKDF)
	require.NoError(t, err)
	v.Salt[0] ^= 0xff

	_, err = v.Decrypt("pw")
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestVaultSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wallet.vault")
	v, err := NewVaultWithKDF(testMnemonic, "pw", testKDF)
	require.NoError(t, err)
	require.NoError(t, v.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadVault(path)
	require.NoError(t, err)
	require.Equal(t, testKDF, loaded.KDF)
	got, err := loaded.Decrypt("pw")
	require.NoError(t, err)
	require.Equal(t, testMnemonic, got)

	_, err = LoadVault(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
