package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/chunkgpt/pkg/errors"
)

const testClientSecret = "s3cret-s3cret-s3cret"

func newTestService(t *testing.T, ttl time.Duration) Service {
	t.Helper()
	hash, err := HashSecret(testClientSecret)
	require.NoError(t, err)
	repo := NewStaticRepository([]Client{{ID: " reporting ", SecretHash: hash}, {ID: ""}})
	return NewService(Config{
		Enabled:  true,
		Secret:   "test-secret",
		Issuer:   "chunkgpt",
		TokenTTL: ttl,
	}, repo, newTestLogger())
}

func TestService_IssueAndValidateToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, time.Hour)
	require.True(t, svc.Enabled())

	resp, err := svc.IssueToken(context.Background(), TokenRequest{ClientID: "reporting", ClientSecret: testClientSecret})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "Bearer", resp.TokenType)
	require.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, "reporting", claims.ClientID)
	require.NotEmpty(t, claims.TokenID)
	require.WithinDuration(t, resp.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestService_IssueTokenRejectsBadCredentials(t *testing.T) {
	tests := []struct {
		name string
		req  TokenRequest
		code string
	}{
		{name: "missing secret", req: TokenRequest{ClientID: "reporting"}, code: "invalid_input"},
		{name: "unknown client", req: TokenRequest{ClientID: "other", ClientSecret: testClientSecret}, code: "invalid_credentials"},
		{name: "wrong secret", req: TokenRequest{ClientID: "reporting", ClientSecret: "not-the-secret!!"}, code: "invalid_credentials"},
	}
	svc := newTestService(t, time.Hour)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.IssueToken(context.Background(), tt.req)
			require.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestService_ValidateTokenRejects(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, time.Hour)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "chunkgpt",
			Subject:   "reporting",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignSigned, err := foreign.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "elsewhere",
			Subject:   "reporting",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongIssuerSigned, err := wrongIssuer.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		TokenType:        tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "chunkgpt", Subject: "reporting"},
	})
	noExpirySigned, err := noExpiry.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-jwt", foreignSigned, wrongIssuerSigned, noExpirySigned} {
		_, err := svc.ValidateToken(context.Background(), token)
		require.True(t, apperrors.IsCode(err, "invalid_token"), "token %q: %v", token, err)
	}
}

func TestService_ValidateTokenExpired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, time.Millisecond)

	resp, err := svc.IssueToken(context.Background(), TokenRequest{ClientID: "reporting", ClientSecret: testClientSecret})
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = svc.ValidateToken(context.Background(), resp.Token)
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestHashSecretRequiresLength(t *testing.T) {
	t.Parallel()
	_, err := HashSecret("short")
	require.Error(t, err)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}
