package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"docgen/internal/config"
)

const (
	// PrincipalLocalKey is the key used to store the authenticated Principal in Fiber's context locals.
	PrincipalLocalKey = "principal"

	ScopeUser  = "user"
	ScopeAdmin = "admin"
)

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the principal was granted scope.
func (p Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Scope             string `json:"scope"`
	PreferredUsername string `json:"preferred_username"`
}

// Authenticator validates bearer tokens. Only signature and time claims are
// checked, plus the audience when one is configured.
type Authenticator struct {
	key      any
	methods  []string
	audience string
}

// NewAuthenticator builds an Authenticator from an HMAC secret or an RSA public key in PEM form.
// The public key wins when both are set.
func NewAuthenticator(cfg config.AuthConfig) (*Authenticator, error) {
	a := &Authenticator{audience: cfg.Audience}
	switch {
	case cfg.JWTPublicKey != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKey))
		if err != nil {
			return nil, fmt.Errorf("parse jwt public key: %w", err)
		}
		a.key = key
		a.methods = []string{"RS256", "RS384", "RS512"}
	case cfg.JWTSecret != "":
		a.key = []byte(cfg.JWTSecret)
		a.methods = []string{"HS256", "HS384", "HS512"}
	default:
		return nil, errors.New("jwt secret or public key is required")
	}
	return a, nil
}

// Verify parses and validates a raw token.
func (a *Authenticator) Verify(raw string) (Principal, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	}, jwt.WithValidMethods(a.methods))
	if err != nil {
		return Principal{}, err
	}
	if a.audience != "" && !claims.VerifyAudience(a.audience, true) {
		return Principal{}, errors.New("token audience mismatch")
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.PreferredUsername
	}
	if subject == "" {
		return Principal{}, errors.New("token has no subject")
	}
	return Principal{Subject: subject, Scopes: strings.Fields(claims.Scope)}, nil
}

// Handler rejects requests without a valid bearer token and stores the
// Principal under PrincipalLocalKey.
func (a *Authenticator) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid Authorization header")
		}
		p, err := a.Verify(strings.TrimSpace(raw))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		c.Locals(PrincipalLocalKey, p)
		return c.Next()
	}
}

// RequireScope allows the request when the principal holds any of scopes.
func RequireScope(scopes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthenticated")
		}
		for _, s := range scopes {
			if p.HasScope(s) {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "access token missing required scope")
	}
}

// PrincipalFromCtx returns the principal stored by Authenticator.Handler.
func PrincipalFromCtx(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(PrincipalLocalKey).(Principal)
	return p, ok
}
