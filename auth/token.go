package auth

import (
	"chat-relay/errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// CustomClaims defines the structure of the data stored inside the JWT.
// The identity subsystem issues tokens; this service only verifies them.
type CustomClaims struct {
	CredentialsID string `json:"credentials_id"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with the shared secret.
type Verifier struct {
	secret   []byte
	issuer   string
	duration time.Duration
}

func NewVerifier(secret, issuer string, duration time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, duration: duration}
}

// GenerateToken signs a token for credentialsID.
// Used by the seeding tool and tests.
func (v *Verifier) GenerateToken(credentialsID string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		CredentialsID: credentialsID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   credentialsID,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    v.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// ValidateToken parses and validates the signature, issuer and expiration of
// a JWT string. A leading "Bearer " is accepted.
func (v *Verifier) ValidateToken(tokenString string) (*CustomClaims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, bearerPrefix))
	if tokenString == "" {
		return nil, errors.ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.CredentialsID == "" {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
