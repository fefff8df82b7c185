package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/church-platform/internal/tenant"
)

var ErrInvalidToken = errors.New("invalid_token")

// Principal is the authenticated caller carried by a token.
type Principal struct {
	AdminID    uint
	ChurchID   *uint
	Username   string
	SuperAdmin bool
}

func (p Principal) Scope() tenant.Scope {
	return tenant.Scope{ChurchID: p.ChurchID, SuperAdmin: p.SuperAdmin}
}

type claims struct {
	AdminID    uint   `json:"admin_id"`
	ChurchID   *uint  `json:"church_id,omitempty"`
	Username   string `json:"username"`
	SuperAdmin bool   `json:"is_super_admin,omitempty"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, used to test expiry.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *TokenIssuer) Issue(p Principal) (string, error) {
	now := i.now()
	c := claims{
		AdminID:    p.AdminID,
		ChurchID:   p.ChurchID,
		Username:   p.Username,
		SuperAdmin: p.SuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", p.AdminID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(i.secret)
}

func (i *TokenIssuer) Parse(tokenString string) (Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	if c.AdminID == 0 || (c.ChurchID == nil && !c.SuperAdmin) {
		return Principal{}, ErrInvalidToken
	}

	return Principal{
		AdminID:    c.AdminID,
		ChurchID:   c.ChurchID,
		Username:   c.Username,
		SuperAdmin: c.SuperAdmin,
	}, nil
}
