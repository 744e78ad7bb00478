package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// StaticToken serves the bearer token from config. Issuing and refreshing the
// credential is the identity provider's job; this type only carries it and,
// when the token is a JWT, surfaces its subject and expiry for diagnostics.
// The token is sent even when it looks expired — the server's 401 is the
// authoritative verdict and maps to domain.ErrUnauthorized upstream.
type StaticToken struct {
	token   string
	subject string
	expires time.Time
	log     *zerolog.Logger

	warnOnce sync.Once
}

func NewStaticToken(token string, log *zerolog.Logger) *StaticToken {
	s := &StaticToken{token: token, log: log}
	// Best-effort introspection; opaque tokens are fine too.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if sub, err := claims.GetSubject(); err == nil {
			s.subject = sub
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.expires = exp.Time
		}
		log.Debug().Str("subject", s.subject).Time("expires", s.expires).Msg("api token introspected")
	}
	return s
}

func (s *StaticToken) Token(ctx context.Context) (string, error) {
	if !s.expires.IsZero() && time.Until(s.expires) < time.Minute {
		s.warnOnce.Do(func() {
			s.log.Warn().Time("expires", s.expires).Msg("api token expired or expiring; expect 401s until it is rotated")
		})
	}
	return s.token, nil
}

// Subject returns the token's subject claim when present.
func (s *StaticToken) Subject() string { return s.subject }
