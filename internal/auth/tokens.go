package auth

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/golang-jwt/jwt/v5"

	"live-quiz-service/internal/domain"
)

// Tokens issues and verifies the signed bearer tokens that bind a player
// identity to its random id. Stateless: a token can always be re-derived
// from the player id.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

type playerClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Issue signs a token for the given player id.
func (t *Tokens) Issue(playerID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, playerClaims{ID: playerID})
	return token.SignedString(t.secret)
}

// Verify returns the player id bound into the token, or ErrInvalidToken.
func (t *Tokens) Verify(tokenString string) (string, error) {
	claims := &playerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.ID == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.ID, nil
}

// NewID returns an opaque url-safe random identifier of the given byte
// length, used for player ids and authoring keys.
func NewID(bytes int) string {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
