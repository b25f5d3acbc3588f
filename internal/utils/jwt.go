package utils

import (
	"errors" // Error values
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// ErrNoSigningSecret is returned when a token is requested without a secret configured
var ErrNoSigningSecret = errors.New("jwt secret is not configured")

// JWT Claims
type Claims struct {
	UserID               string `json:"userId"`   // Custom claim for user ID
	Username             string `json:"username"` // Custom claim for username
	jwt.RegisteredClaims                        // Standard JWT claims
}

// GenerateJWT creates a token for the user that expires after ttl
func GenerateJWT(userID, username, secret string, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, ErrNoSigningSecret
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	// Set token claims
	claims := Claims{
		UserID:   userID,   // Custom claim for user ID
		Username: username, // Custom claim for username
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,                       // Subject is the user ID as well
			ExpiresAt: jwt.NewNumericDate(expiresAt), // Fixed validity window
			IssuedAt:  jwt.NewNumericDate(now),       // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	signed, err := token.SignedString([]byte(secret))          // Sign the token with the secret
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseJWT parses and validates a token against each secret in turn, so tokens
// signed before a secret rotation stay valid until they expire
func ParseJWT(tokenStr string, secrets ...string) (*Claims, error) {
	err := error(jwt.ErrTokenSignatureInvalid) // Reported when no secret is configured
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		var claims *Claims
		claims, err = parseWithSecret(tokenStr, secret)
		if err == nil {
			return claims, nil
		}
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, err // Expired or malformed tokens won't verify with another secret either
		}
	}
	return nil, err
}

func parseWithSecret(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != "" {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrTokenInvalidClaims
}
