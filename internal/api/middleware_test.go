package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"viewtube/internal/auth"
	"viewtube/internal/models"
)

func authedProbe(t *testing.T) (http.Handler, *string) {
	t.Helper()

	tokens := auth.NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)
	mw := NewAuthMiddleware(tokens)

	var seenUserID string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &seenUserID
}

func issueTestAccessToken(t *testing.T) string {
	t.Helper()

	tokens := auth.NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)
	token, _, err := tokens.IssueAccessToken(&models.User{ID: "usr_mw", Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	return token
}

func TestRequireAuthAcceptsBearerHeader(t *testing.T) {
	handler, seenUserID := authedProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestAccessToken(t))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body=%q", rr.Code, http.StatusOK, rr.Body.String())
	}
	if *seenUserID != "usr_mw" {
		t.Fatalf("user id in context = %q, want %q", *seenUserID, "usr_mw")
	}
}

func TestRequireAuthAcceptsAccessTokenCookie(t *testing.T) {
	handler, seenUserID := authedProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: issueTestAccessToken(t)})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body=%q", rr.Code, http.StatusOK, rr.Body.String())
	}
	if *seenUserID != "usr_mw" {
		t.Fatalf("user id in context = %q, want %q", *seenUserID, "usr_mw")
	}
}

func TestRequireAuthRejectsMissingAndBadTokens(t *testing.T) {
	handler, _ := authedProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("non-bearer scheme status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
