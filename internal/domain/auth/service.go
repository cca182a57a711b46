package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/chunkgpt/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	Enabled() bool
	IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg    Config
	repo   Repository
	logger *slog.Logger
}

const tokenTypeAccess = "access"

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, logger *slog.Logger) Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &service{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "auth.service"),
	}
}

// HashSecret produces the bcrypt hash stored in client configuration.
func HashSecret(secret string) (string, error) {
	if len(secret) < 16 {
		return "", fmt.Errorf("client secret must be at least 16 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *service) Enabled() bool {
	return s.cfg.Enabled
}

func (s *service) IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	id := strings.TrimSpace(req.ClientID)
	if id == "" || req.ClientSecret == "" {
		return TokenResponse{}, apperrors.Wrap("invalid_input", "clientId and clientSecret are required", nil)
	}
	client, found, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return TokenResponse{}, apperrors.Wrap("auth_error", "failed to fetch client", err)
	}
	if !found {
		s.logger.Warn("token requested for unknown client", "client_id", id)
		return TokenResponse{}, apperrors.Wrap("invalid_credentials", "invalid client credentials", ErrUnknownClient)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(req.ClientSecret)); err != nil {
		s.logger.Warn("client secret mismatch", "client_id", id)
		return TokenResponse{}, apperrors.Wrap("invalid_credentials", "invalid client credentials", nil)
	}
	return s.generateToken(client)
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	if s.cfg.Issuer != "" && claims.Issuer != s.cfg.Issuer {
		return Claims{}, apperrors.Wrap("invalid_token", "token issuer mismatch", nil)
	}
	return Claims{
		ClientID:  claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *service) generateToken(client Client) (TokenResponse, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := tokenClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   client.ID,
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return TokenResponse{}, apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	s.logger.Info("access token issued", "client_id", client.ID, "expires_at", expiresAt)
	return TokenResponse{Token: signed, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}
