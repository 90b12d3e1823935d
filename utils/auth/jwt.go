package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sahilchouksey/campus-api/model"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Verifier turns a bearer token into a verified identity. Roles are not
// part of the token; they are resolved from the role record.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.Identity, error)
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// Claims represents JWT claims
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 identity tokens
type JWTManager struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(config JWTConfig) *JWTManager {
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &JWTManager{config: config, now: time.Now}
}

// GenerateToken issues a token for uid and returns it with its JTI
func (j *JWTManager) GenerateToken(uid, email string) (string, string, error) {
	now := j.now()
	jti := uuid.New().String()

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(j.config.Secret))
	return signedToken, jti, err
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(j.now)}
	if j.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(j.config.Secret), nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// Verify implements Verifier
func (j *JWTManager) Verify(_ context.Context, token string) (model.Identity, error) {
	claims, err := j.ValidateToken(token)
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{UID: claims.Subject, Email: claims.Email}, nil
}
