package security

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"

	"github.com/golang-jwt/jwt"
)

// TokenSigner выпускает и проверяет access-токены (HS256).
type TokenSigner struct {
	secret    []byte
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration
	now       func() time.Time
}

func NewTokenSigner(secret, issuer string, ttl, clockSkew time.Duration) *TokenSigner {
	return &TokenSigner{
		secret:    []byte(secret),
		issuer:    issuer,
		ttl:       ttl,
		clockSkew: clockSkew,
		now:       time.Now,
	}
}

func (s *TokenSigner) TTL() time.Duration { return s.ttl }

type AccessClaims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
}

// Sign выпускает JWT с sub=userID и exp=now+ttl.
func (s *TokenSigner) Sign(userID domain.UserID, username string) (string, error) {
	now := s.now()
	claims := AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(int64(userID), 10),
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			NotBefore: now.Add(-s.clockSkew).Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
		Username: username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse проверяет подпись, issuer и временные клеймы с допуском clockSkew.
func (s *TokenSigner) Parse(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parser := &jwt.Parser{SkipClaimsValidation: true} // exp/nbf проверяем сами, с люфтом
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return nil, domain.ErrInvalidToken
	}

	now := s.now()
	nbf := time.Unix(claims.NotBefore, 0).Add(-s.clockSkew)
	exp := time.Unix(claims.ExpiresAt, 0).Add(s.clockSkew)
	if now.Before(nbf) || now.After(exp) {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// UserID парсит sub в domain.UserID.
func (c *AccessClaims) UserID() (domain.UserID, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidToken
	}
	return domain.UserID(id), nil
}
