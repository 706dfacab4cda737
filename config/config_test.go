package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PRISM_TARGET", "PRISM_NETWORK", "PRISM_TLS", "PRISM_TIMEOUT",
		"PRISM_TOKEN_STORE", "PRISM_LOG_LEVEL", "PRISM_EVENTS", "PRISM_ENV_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, DefaultTarget, cfg.Target)
	require.Equal(t, NetworkMainnet, cfg.Network)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.False(t, cfg.TLS)
	require.Empty(t, cfg.TokenStore)
	require.Equal(t, 30*time.Second, cfg.Keepalive.Time)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`
target: api.example.com:443
network: Testnet
tls: true
timeout: 5s
token_store: memory
log_level: debug
keepalive:
  time: 1m
  timeout: 20s
`), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "api.example.com:443", cfg.Target)
	require.Equal(t, NetworkTestnet, cfg.Network)
	require.True(t, cfg.TLS)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, "memory", cfg.TokenStore)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel())
	require.Equal(t, time.Minute, cfg.Keepalive.Time)
	require.Equal(t, 20*time.Second, cfg.Keepalive.Timeout)

	t.Setenv("PRISM_TARGET", "localhost:9000")
	t.Setenv("PRISM_NETWORK", "previewnet")
	t.Setenv("PRISM_TLS", "off")
	t.Setenv("PRISM_TIMEOUT", "250ms")
	t.Setenv("PRISM_TOKEN_STORE", "redis://localhost:6379/1")
	t.Setenv("PRISM_LOG_LEVEL", "8")

	cfg, err = Load(dir)
	require.NoError(t, err)
	require.Equal(t, "localhost:9000", cfg.Target)
	require.Equal(t, NetworkPreviewnet, cfg.Network)
	require.False(t, cfg.TLS)
	require.Equal(t, 250*time.Millisecond, cfg.Timeout)
	require.Equal(t, "redis://localhost:6379/1", cfg.TokenStore)
	require.Equal(t, slog.LevelError, cfg.LogLevel())
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Setenv("PRISM_NETWORK", "devnet")
	_, err := Load(dir)
	require.ErrorIs(t, err, ErrInvalidNetwork)

	t.Setenv("PRISM_NETWORK", "")
	t.Setenv("PRISM_TIMEOUT", "soon")
	_, err = Load(dir)
	require.Error(t, err)

	t.Setenv("PRISM_TIMEOUT", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("target: [oops"), 0600))
	_, err = Load(dir)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "state")

	cfg := Default()
	cfg.Network = "TESTNET"
	cfg.Timeout = 12 * time.Second
	require.NoError(t, Save(dir, cfg))

	info, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	back, err := ReadFile(dir)
	require.NoError(t, err)
	require.Equal(t, NetworkTestnet, back.Network)
	require.Equal(t, 12*time.Second, back.Timeout)

	cfg.Network = "nope"
	require.ErrorIs(t, Save(dir, cfg), ErrInvalidNetwork)
}

func TestReadFileIgnoresEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("PRISM_NETWORK", "testnet")

	cfg, err := ReadFile(dir)
	require.NoError(t, err)
	require.Equal(t, NetworkMainnet, cfg.Network)
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"-4":      slog.LevelDebug,
		"garbage": slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := &Config{Log: in}
		require.Equal(t, want, cfg.LogLevel().Level(), in)
	}
}

func TestDir(t *testing.T) {
	t.Setenv("PRISM_HOME", "/tmp/prism-test")
	dir, err := Dir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/prism-test", dir)

	t.Setenv("PRISM_HOME", "")
	dir, err = Dir()
	require.NoError(t, err)
	require.Equal(t, DirName, filepath.Base(dir))
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "prism.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PRISM_TARGET=from-dotenv:1\nPRISM_NETWORK=testnet\n"), 0600))

	t.Setenv("PRISM_ENV_FILE", envFile)
	require.NoError(t, os.Unsetenv("PRISM_TARGET"))
	t.Setenv("PRISM_NETWORK", "previewnet")
	LoadDotenv()
	t.Cleanup(func() { _ = os.Unsetenv("PRISM_TARGET") })

	require.Equal(t, "from-dotenv:1", os.Getenv("PRISM_TARGET"))
	// exported variables win
	require.Equal(t, "previewnet", os.Getenv("PRISM_NETWORK"))
}
