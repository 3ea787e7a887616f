package services

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mbj/siteapi/internal/domain/entities"
	"github.com/mbj/siteapi/internal/infrastructure/config"
	"github.com/mbj/siteapi/internal/infrastructure/logger"
	"github.com/mbj/siteapi/internal/ports"
)

var _ ports.Authenticator = (*TokenAuthenticator)(nil)

// TokenAuthenticator checks a bearer token against the static admin token,
// given either in plain text or as a bcrypt hash.
type TokenAuthenticator struct {
	token  []byte
	hash   []byte
	logger *logger.Logger
}

// NewTokenAuthenticator creates an authenticator from the auth config
func NewTokenAuthenticator(cfg config.AuthConfig, appLogger *logger.Logger) *TokenAuthenticator {
	a := &TokenAuthenticator{logger: appLogger.WithComponent("auth")}
	if t := strings.TrimSpace(cfg.APIToken); t != "" {
		a.token = []byte(t)
	}
	if h := strings.TrimSpace(cfg.APITokenHash); h != "" {
		a.hash = []byte(h)
	}
	return a
}

// Configured reports whether any token is set. Without one no write can succeed.
func (a *TokenAuthenticator) Configured() bool {
	return len(a.token) > 0 || len(a.hash) > 0
}

// Authenticate returns nil when the credential carries the admin token.
func (a *TokenAuthenticator) Authenticate(cred entities.Credential) error {
	if !cred.HasToken() {
		a.logger.LogSecurityEvent("missing_token", cred.RemoteIP, nil)
		return entities.ErrMissingToken
	}

	if !a.Configured() {
		a.logger.LogSecurityEvent("token_not_configured", cred.RemoteIP, nil)
		return fmt.Errorf("%w: %w", entities.ErrInvalidToken, entities.ErrNoTokenConfig)
	}

	presented := []byte(strings.TrimSpace(cred.BearerToken))

	if len(a.token) > 0 && subtle.ConstantTimeCompare(presented, a.token) == 1 {
		return nil
	}
	if len(a.hash) > 0 && bcrypt.CompareHashAndPassword(a.hash, presented) == nil {
		return nil
	}

	a.logger.LogSecurityEvent("invalid_token", cred.RemoteIP, nil)
	return entities.ErrInvalidToken
}

// HashToken returns a bcrypt hash suitable for API_TOKEN_HASH.
func HashToken(token string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(token)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
