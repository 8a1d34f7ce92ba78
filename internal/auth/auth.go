package auth

import "github.com/golang-jwt/jwt/v5"

type Authenticator interface {
	GenerateTokens(subject, role string) (access string, refresh string, err error)
	ValidateAccessToken(token string) (*jwt.Token, error)
	ValidateRefreshToken(token string) (*jwt.Token, error)
}

// Claims carried by access tokens. Refresh tokens leave Role empty.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
