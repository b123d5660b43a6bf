package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// deriveKey expands the configured secret into an independent signing key
// per token type.
func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, err
	}
	return key, nil
}

func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenManager, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	acc, err := deriveKey([]byte(secret), "qrpay/jwt/access")
	if err != nil {
		return nil, fmt.Errorf("derive access key: %w", err)
	}
	ref, err := deriveKey([]byte(secret), "qrpay/jwt/refresh")
	if err != nil {
		return nil, fmt.Errorf("derive refresh key: %w", err)
	}
	return &TokenManager{
		accessSecret:  acc,
		refreshSecret: ref,
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// Claims carry the wallet address as subject.
type Claims struct {
	Role string `json:"role"`
	Type string `json:"typ"` // "access" | "refresh"
	jwt.RegisteredClaims
}

func (c *Claims) Wallet() string { return c.Subject }

type Pair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (tm *TokenManager) sign(wallet, role, typ string, ttl time.Duration, key []byte) (string, time.Time, error) {
	now := tm.now()
	exp := now.Add(ttl)
	claims := Claims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   wallet,
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	return s, exp, err
}

// GeneratePair issues an access and a refresh token for the wallet.
func (tm *TokenManager) GeneratePair(wallet, role string) (Pair, error) {
	access, exp, err := tm.sign(wallet, role, TokenAccess, tm.accessTTL, tm.accessSecret)
	if err != nil {
		return Pair{}, err
	}
	refresh, _, err := tm.sign(wallet, role, TokenRefresh, tm.refreshTTL, tm.refreshSecret)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

func (tm *TokenManager) parse(tokenStr, typ string, key []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil || claims.Type != typ || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (tm *TokenManager) ParseAccess(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, TokenAccess, tm.accessSecret)
}

func (tm *TokenManager) ParseRefresh(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, TokenRefresh, tm.refreshSecret)
}
