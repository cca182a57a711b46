package auth

import "time"

// Config drives authentication behavior.
type Config struct {
	Enabled  bool
	Secret   string
	Issuer   string
	TokenTTL time.Duration
	Clients  []Client
}

// Client is an API consumer allowed to request access tokens.
type Client struct {
	ID         string `json:"id" yaml:"id"`
	SecretHash string `json:"-" yaml:"secretHash"`
}

// TokenRequest captures the client credentials grant.
type TokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// TokenResponse returns the signed access token.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	ClientID  string
	TokenID   string
	ExpiresAt time.Time
}
