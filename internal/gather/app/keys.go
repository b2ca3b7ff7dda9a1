package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/gather/pkg/jwtx"
)

// InitSigner loads the token signing key.
//
// With GATHER_SIGNING_KEY_FILE set, the PKCS8 Ed25519 key in that file is
// used and tokens survive restarts. Otherwise a key is generated in memory
// and every restart invalidates outstanding tokens.
func InitSigner(cfg Config, logger *slog.Logger) (*jwtx.Signer, error) {
	if cfg.SigningKeyFile == "" {
		signer, err := jwtx.GenerateSigner(cfg.SigningKeyID)
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		logger.Warn("using ephemeral signing key; tokens will not survive a restart", "kid", signer.KID())
		return signer, nil
	}

	pemKey, err := os.ReadFile(cfg.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}
	signer, err := jwtx.ParseSignerPEM(cfg.SigningKeyID, pemKey)
	if err != nil {
		return nil, err
	}

	logger.Info("signing key loaded", "kid", signer.KID(), "path", cfg.SigningKeyFile)
	return signer, nil
}
