package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("token invalid")

type JWT struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// Identity is the set of user attributes carried by a session token.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     string
}

// Claims is the token payload: identity plus the registered expiry claims.
type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{
		ID:       c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
	}
}

func New(key string, ttl time.Duration) (*JWT, error) {
	if len(key) == 0 {
		return nil, errors.New("key is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}

	return &JWT{key: []byte(key), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for id that expires after the default TTL.
func (j *JWT) Issue(id Identity) (string, error) {
	return j.IssueWithTTL(id, j.ttl)
}

func (j *JWT) IssueWithTTL(id Identity, ttl time.Duration) (string, error) {
	now := j.now()

	// 创建声明
	claims := &Claims{
		UserID:   id.ID,
		Username: id.Username,
		Email:    id.Email,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	// 签名并返回
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the decoded claims.
// Every failure wraps ErrTokenInvalid.
func (j *JWT) Verify(tokenString string) (*Claims, error) {
	if len(tokenString) == 0 {
		return nil, fmt.Errorf("%w: token string is empty", ErrTokenInvalid)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing identity", ErrTokenInvalid)
	}

	return claims, nil
}
