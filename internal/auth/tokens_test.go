package auth

import (
	"strings"
	"testing"
	"time"

	"viewtube/internal/models"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdef0123456789"
	testRefreshSecret = "refresh-secret-0123456789abcdef012345678"
)

func testUser() *models.User {
	return &models.User{
		ID:       "usr_test",
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)

	token, expiresAt, err := svc.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("IssueAccessToken() returned empty token")
	}
	if time.Until(expiresAt) > 15*time.Minute {
		t.Fatalf("expiresAt = %v, want within 15m", expiresAt)
	}

	claims, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if claims.UserID != "usr_test" {
		t.Fatalf("claims.UserID = %q, want %q", claims.UserID, "usr_test")
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("claims.Email = %q, want %q", claims.Email, "alice@example.com")
	}
	if claims.Username != "alice" {
		t.Fatalf("claims.Username = %q, want %q", claims.Username, "alice")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)

	token, err := svc.IssueRefreshToken(testUser())
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	claims, err := svc.VerifyRefreshToken(token)
	if err != nil {
		t.Fatalf("VerifyRefreshToken() error = %v", err)
	}
	if claims.UserID != "usr_test" {
		t.Fatalf("claims.UserID = %q, want %q", claims.UserID, "usr_test")
	}
}

func TestTokenKindsUseIndependentSecrets(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)

	accessToken, _, err := svc.IssueAccessToken(testUser())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	refreshToken, err := svc.IssueRefreshToken(testUser())
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	if _, err := svc.VerifyRefreshToken(accessToken); err == nil {
		t.Fatal("VerifyRefreshToken(accessToken) succeeded, want error")
	}
	if _, err := svc.VerifyAccessToken(refreshToken); err == nil {
		t.Fatal("VerifyAccessToken(refreshToken) succeeded, want error")
	}
}

func TestExpiredRefreshTokenFailsVerification(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, -time.Minute)

	token, err := svc.IssueRefreshToken(testUser())
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	if _, err := svc.VerifyRefreshToken(token); err == nil {
		t.Fatal("VerifyRefreshToken() succeeded for expired token, want error")
	}
}

func TestTamperedTokenFailsVerification(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)

	token, err := svc.IssueRefreshToken(testUser())
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if tampered == token {
		tampered = token[:len(token)-2] + "yy"
	}
	if _, err := svc.VerifyRefreshToken(tampered); err == nil {
		t.Fatal("VerifyRefreshToken() succeeded for tampered token, want error")
	}

	if _, err := svc.VerifyRefreshToken("not-a-jwt"); err == nil {
		t.Fatal("VerifyRefreshToken() succeeded for garbage token, want error")
	}
}

func TestIssuePairReturnsDistinctTokens(t *testing.T) {
	svc := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)

	pair, err := svc.IssuePair(testUser())
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("IssuePair() returned identical access and refresh tokens")
	}
	if !strings.Contains(pair.AccessToken, ".") || !strings.Contains(pair.RefreshToken, ".") {
		t.Fatalf("IssuePair() tokens are not JWTs: %q / %q", pair.AccessToken, pair.RefreshToken)
	}
}
