package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the validity window of an issued token.
const DefaultTTL = 7 * 24 * time.Hour

// Claims is the signed claim set carried by a bearer token.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject into the numeric user id.
func (c *Claims) UserID() int64 {
	v, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// TokenService issues and verifies signed, time-limited bearer tokens.
// Stateless: there is no revocation list, a token stays valid for its whole
// window.
type TokenService struct {
	Secret string
	Issuer string
	TTL    time.Duration

	// Now is overridable in tests; zero value means time.Now.
	Now func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{Secret: secret, Issuer: issuer, TTL: ttl}
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue signs {iss, sub, iat, exp} for the given user id.
func (s *TokenService) Issue(userID int64) (string, error) {
	if s.Secret == "" {
		return "", errors.New("auth: token secret not configured")
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.Secret))
}

// Verify checks signature and expiry. Any failure (bad signature, malformed
// token, expired) comes back as an error; callers treat all of them the same.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	if s.Secret == "" {
		return nil, errors.New("auth: token secret not configured")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, errors.New("auth: token expired")
	}

	return &claims, nil
}
