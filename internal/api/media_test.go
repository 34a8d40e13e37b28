package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"viewtube/internal/blob"
	"viewtube/internal/db"
	"viewtube/internal/mediaurl"
)

func TestMediaServesUploadedAvatar(t *testing.T) {
	database := openTestDB(t)
	users := db.NewUserRepository(database)
	blobRecords := db.NewBlobRepository(database)

	blobs, err := blob.NewService(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("blob.NewService() error = %v", err)
	}

	env := &testEnv{users: users, handler: NewAuthHandler(users, blobRecords, blobs, testTokens(), "", 1<<20)}
	registerTestUser(t, env)

	user, err := users.FindByIdentity("alice")
	if err != nil {
		t.Fatalf("FindByIdentity() error = %v", err)
	}

	blobID, ok := mediaurl.ParseBlobID(user.AvatarURL)
	if !ok {
		t.Fatalf("ParseBlobID(%q) failed", user.AvatarURL)
	}

	router := chi.NewRouter()
	router.Get("/media/{blobID}", NewMediaHandler(blobRecords, blobs).GetBlob)

	req := httptest.NewRequest(http.MethodGet, "/media/"+blobID, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body=%q", rr.Code, http.StatusOK, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Content-Type = %q, want image/png", ct)
	}
	if rr.Body.Len() == 0 {
		t.Fatal("media response body is empty")
	}
}

func TestMediaUnknownBlobReturns404(t *testing.T) {
	database := openTestDB(t)
	blobRecords := db.NewBlobRepository(database)

	blobs, err := blob.NewService(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("blob.NewService() error = %v", err)
	}

	router := chi.NewRouter()
	router.Get("/media/{blobID}", NewMediaHandler(blobRecords, blobs).GetBlob)

	req := httptest.NewRequest(http.MethodGet, "/media/blb_missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, body=%q", err, rr.Body.String())
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("error status field = %d, want %d", resp.Status, http.StatusNotFound)
	}
}
