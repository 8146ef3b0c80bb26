// Package token issues and validates the bearer token pairs used by the api.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("token is invalid or expired")
	ErrWrongType    = errors.New("token has wrong type")
)

// Claims carried by both token types
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Pair returned by the token obtain endpoint
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Issuer signs tokens with a shared HS256 secret
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) sign(userID int64, username, typ string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// IssuePair creates an access and a refresh token for the user
func (i *Issuer) IssuePair(userID int64, username string) (*Pair, error) {
	access, err := i.sign(userID, username, TypeAccess, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(userID, username, TypeRefresh, i.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh}, nil
}

func (i *Issuer) parse(signed, typ string) (*Claims, error) {
	claims := &Claims{}
	tk, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !tk.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != typ {
		return nil, ErrWrongType
	}
	return claims, nil
}

// ParseAccess validates an access token
func (i *Issuer) ParseAccess(signed string) (*Claims, error) {
	return i.parse(signed, TypeAccess)
}

// ParseRefresh validates a refresh token
func (i *Issuer) ParseRefresh(signed string) (*Claims, error) {
	return i.parse(signed, TypeRefresh)
}

// Refresh exchanges a valid refresh token for a new access token
func (i *Issuer) Refresh(refresh string) (string, error) {
	claims, err := i.ParseRefresh(refresh)
	if err != nil {
		return "", err
	}
	return i.sign(claims.UserID, claims.Username, TypeAccess, i.accessTTL)
}
