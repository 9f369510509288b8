package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned by VerifyToken for a well-formed token past its exp.
// Callers may refresh in that case; any other error is final.
var ErrTokenExpired = jwt.ErrTokenExpired

type Claims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}

type Manager struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	ttl       time.Duration
	now       func() time.Time
}

// NewHMACManager signs access tokens with HS256.
func NewHMACManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		method:    jwt.SigningMethodHS256,
		signKey:   []byte(secret),
		verifyKey: []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// NewRSAManager signs access tokens with RS256 using PEM encoded keys.
func NewRSAManager(privateKeyPath, publicKeyPath string, ttl time.Duration) (*Manager, error) {
	privateKey, err := loadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, err
	}

	publicKey, err := loadPublicKey(publicKeyPath)
	if err != nil {
		return nil, err
	}

	return &Manager{
		method:    jwt.SigningMethodRS256,
		signKey:   privateKey,
		verifyKey: publicKey,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// NewManager prefers the RSA key pair when a private key path is given.
func NewManager(secret, privateKeyPath, publicKeyPath string, ttl time.Duration) (*Manager, error) {
	if privateKeyPath != "" {
		return NewRSAManager(privateKeyPath, publicKeyPath, ttl)
	}
	if secret == "" {
		return nil, errors.New("jwt: secret is empty")
	}
	return NewHMACManager(secret, ttl), nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPublicKeyFromPEM(keyBytes)
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// GenerateToken issues an access token for userID and returns its expiry.
func (m *Manager) GenerateToken(userID uint) (string, time.Time, error) {
	return m.generate(userID, m.now().Add(m.ttl))
}

func (m *Manager) generate(userID uint, expiresAt time.Time) (string, time.Time, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(m.method, claims)
	tokenString, err := token.SignedString(m.signKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// VerifyToken checks signature and expiry and returns the token's user id.
func (m *Manager) VerifyToken(tokenString string) (uint, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return m.verifyKey, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return 0, err
	}

	if !token.Valid || claims.UserID == 0 {
		return 0, jwt.ErrTokenInvalidClaims
	}

	return claims.UserID, nil
}
