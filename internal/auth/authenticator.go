package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/banndicoot-king/stream-pru/internal/config"
)

// ErrUnauthorized is returned when a connection is refused admission.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator decides whether an upgrade request may open a connection.
type Authenticator interface {
	Authenticate(r *http.Request) error
}

// AllowAll admits every connection.
type AllowAll struct{}

func (AllowAll) Authenticate(*http.Request) error { return nil }

// QueryKey admits connections whose query string carries Key=Value.
type QueryKey struct {
	Key   string
	Value string
}

func (q QueryKey) Authenticate(r *http.Request) error {
	got := r.URL.Query().Get(q.Key)
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(q.Value)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// JWT admits connections presenting a valid token, either in the "token" query
// parameter or as a bearer Authorization header.
type JWT struct {
	Config *JWTConfig
}

func (j JWT) Authenticate(r *http.Request) error {
	token := r.URL.Query().Get("token")
	if token == "" {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return ErrUnauthorized
	}
	if _, err := ValidateToken(j.Config, token); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

// New returns the authenticator selected by cfg.AuthMode.
func New(cfg config.Config) (Authenticator, error) {
	switch cfg.AuthMode {
	case "", config.AuthModeNone:
		return AllowAll{}, nil
	case config.AuthModeQueryKey:
		return QueryKey{Key: cfg.AuthQueryKey, Value: cfg.AuthQueryValue}, nil
	case config.AuthModeJWT:
		return JWT{Config: JWTConfigFrom(cfg)}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}
