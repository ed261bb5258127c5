package configurator

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// SessionCookie carries the signed session token.
const SessionCookie = "configurator_session"

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator checks passwords and issues session tokens.
type Authenticator struct {
	users         map[string][]byte
	secretKey     []byte
	tokenDuration time.Duration
}

// NewAuthenticator creates an authenticator with no users.
func NewAuthenticator(secretKey string, tokenDuration time.Duration) *Authenticator {
	return &Authenticator{
		users:         make(map[string][]byte),
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// AddUser stores a bcrypt hash of password for username.
func (a *Authenticator) AddUser(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	a.users[username] = hash
	return nil
}

// Login verifies the credentials and returns a session token.
func (a *Authenticator) Login(username, password string) (string, error) {
	hash, ok := a.users[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return a.GenerateToken(username)
}

func (a *Authenticator) GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "configurator",
			Subject:   username,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secretKey)
}

func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secretKey, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, known := a.users[claims.Username]; !known {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
