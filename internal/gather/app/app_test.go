package app

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/gather/pkg/httpx"
	"github.com/aussiebroadwan/gather/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "gather", cfg.Issuer)
	require.Equal(t, "593", cfg.CountryCode)
	require.Equal(t, "0", cfg.TrunkPrefix)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 7*24*time.Hour, cfg.LinkTTL)
	require.Equal(t, httpx.StrictLimit, cfg.RateLimitStrict)
	require.Equal(t, httpx.LenientLimit, cfg.RateLimitLenient)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GATHER_COUNTRY_CODE", "61")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "1000")
	t.Setenv("RATELIMIT_STRICT_BURST", "1000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "61", cfg.CountryCode)
	require.Equal(t, 1000, cfg.RateLimitStrict.RequestsPerWindow)
	require.Equal(t, 1000, cfg.RateLimitStrict.Burst)
	require.Equal(t, httpx.StrictLimit.Window, cfg.RateLimitStrict.Window)
	require.Equal(t, httpx.ModerateLimit, cfg.RateLimitModerate)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestInitSignerFromFile(t *testing.T) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "signing.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

	signer, err := InitSigner(Config{SigningKeyID: "k1", SigningKeyFile: path}, slogx.Discard())
	require.NoError(t, err)
	require.Equal(t, "k1", signer.KID())

	_, err = InitSigner(Config{SigningKeyID: "k1", SigningKeyFile: filepath.Join(t.TempDir(), "missing.pem")}, slogx.Discard())
	require.Error(t, err)
}

func TestNewServesHealth(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.DatabaseFile = filepath.Join(t.TempDir(), "gather.db")
	cfg.LogLevel = "error"

	application, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.db.Close() })

	srv := httptest.NewServer(application.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
