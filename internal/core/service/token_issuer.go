package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
)

const (
	TokenFormatOpaque = "opaque"
	TokenFormatJWT    = "jwt"

	opaqueTokenBytes = 20
)

var errMalformedToken = errors.New("malformed token")

// NewTokenIssuer returns the issuer for the configured token format.
func NewTokenIssuer(format, secret string) (ports.TokenIssuer, error) {
	switch format {
	case "", TokenFormatOpaque:
		return OpaqueIssuer{}, nil
	case TokenFormatJWT:
		if secret == "" {
			return nil, errors.New("jwt token format requires a secret")
		}
		return NewJWTIssuer(secret), nil
	default:
		return nil, fmt.Errorf("unknown token format %q", format)
	}
}

// OpaqueIssuer issues 40 character hex keys from crypto/rand.
type OpaqueIssuer struct{}

func (OpaqueIssuer) Issue(*domain.User) (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (OpaqueIssuer) Check(key string) error {
	if len(key) != opaqueTokenBytes*2 {
		return errMalformedToken
	}
	if _, err := hex.DecodeString(key); err != nil {
		return errMalformedToken
	}
	return nil
}

// JWTIssuer issues HS256 signed keys. The signature only proves the key was
// minted here; whether it is still valid is decided by the token repository.
type JWTIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewJWTIssuer(secret string) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), now: time.Now}
}

func (i *JWTIssuer) Issue(user *domain.User) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  user.ID,
		ID:       uuid.NewString(),
		IssuedAt: jwt.NewNumericDate(i.now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *JWTIssuer) Check(key string) error {
	_, err := jwt.ParseWithClaims(key, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedToken, err)
	}
	return nil
}
