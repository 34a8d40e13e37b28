package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"viewtube/internal/auth"
	"viewtube/internal/blob"
	"viewtube/internal/db"
	"viewtube/internal/mediaurl"
	"viewtube/internal/models"
)

var profileTextPolicy = bluemonday.StrictPolicy()

type AuthHandler struct {
	users            *db.UserRepository
	blobRecords      *db.BlobRepository
	blobs            *blob.Service
	tokens           *auth.TokenService
	baseURL          string
	uploadLimitBytes int64
}

func NewAuthHandler(
	users *db.UserRepository,
	blobRecords *db.BlobRepository,
	blobs *blob.Service,
	tokens *auth.TokenService,
	baseURL string,
	uploadLimitBytes int64,
) *AuthHandler {
	return &AuthHandler{
		users:            users,
		blobRecords:      blobRecords,
		blobs:            blobs,
		tokens:           tokens,
		baseURL:          baseURL,
		uploadLimitBytes: uploadLimitBytes,
	}
}

type RegisterResponse struct {
	Status      int          `json:"status"`
	Message     string       `json:"message"`
	CreatedUser *models.User `json:"createdUser"`
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.uploadLimitBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimitBytes)
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		if isBodyTooLargeError(err) {
			payloadTooLarge(w, "Upload exceeds maximum size")
		} else {
			badRequest(w, "Invalid multipart upload")
		}
		return
	}
	// Multipart temp files are removed unconditionally, whether or not
	// the registration succeeds.
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	fullName := strings.TrimSpace(profileTextPolicy.Sanitize(r.FormValue("fullName")))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	username := strings.ToLower(strings.TrimSpace(r.FormValue("username")))

	if fullName == "" || email == "" || strings.TrimSpace(password) == "" || username == "" {
		badRequest(w, "All fields are required")
		return
	}
	if err := requestValidator.Var(email, "email,max=254"); err != nil {
		badRequest(w, "Invalid email format")
		return
	}

	exists, err := h.users.ExistsByUsernameOrEmail(username, email)
	if err != nil {
		slog.Error("error checking user existence", "error", err)
		internalError(w, "")
		return
	}
	if exists {
		conflict(w, "User with username or email already exists")
		return
	}

	avatarFile, avatarHeader, err := r.FormFile("avatar")
	if err != nil {
		badRequest(w, "Avatar file is required")
		return
	}
	defer avatarFile.Close()

	avatarURL, avatarStored, ok := h.storeProfileImage(w, r, blob.KindAvatar, avatarFile, avatarHeader)
	if !ok {
		return
	}

	cleanupStored := true
	defer func() {
		if cleanupStored {
			h.discardStoredBlob(avatarStored)
		}
	}()

	coverImageURL := ""
	var coverStored *blob.StoredBlob
	if coverFile, coverHeader, coverErr := r.FormFile("coverImage"); coverErr == nil {
		defer coverFile.Close()
		coverImageURL, coverStored, ok = h.storeProfileImage(w, r, blob.KindCoverImage, coverFile, coverHeader)
		if !ok {
			return
		}
		defer func() {
			if cleanupStored {
				h.discardStoredBlob(coverStored)
			}
		}()
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("error hashing password", "error", err)
		internalError(w, "")
		return
	}

	created, err := h.users.Create(db.CreateUserParams{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		PasswordHash:  passwordHash,
	})
	if errors.Is(err, db.ErrDuplicate) {
		conflict(w, "User with username or email already exists")
		return
	}
	if err != nil {
		slog.Error("error creating user", "error", err)
		internalError(w, "")
		return
	}

	createdUser, err := h.users.FindByID(created.ID)
	if err != nil {
		slog.Error("error reading back created user", "error", err, "user_id", created.ID)
		internalError(w, "Something went wrong while creating user")
		return
	}
	cleanupStored = false

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Status:      http.StatusCreated,
		Message:     "User registered successfully",
		CreatedUser: createdUser,
	})
}

type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,max=254"`
	Username string `json:"username" validate:"omitempty,max=254"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Status       int          `json:"status"`
	Message      string       `json:"message"`
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	identity := strings.ToLower(strings.TrimSpace(req.Username))
	if identity == "" {
		identity = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if identity == "" {
		badRequest(w, "Email or username is required")
		return
	}

	user, err := h.users.FindByIdentity(identity)
	if errors.Is(err, db.ErrNotFound) {
		badRequest(w, "User does not exist")
		return
	}
	if err != nil {
		slog.Error("error finding user", "error", err)
		internalError(w, "")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		badRequest(w, "Please enter a valid password")
		return
	}

	pair, err := h.issueSession(user)
	if err != nil {
		slog.Error("error issuing session tokens", "error", err, "user_id", user.ID)
		internalError(w, "Something went wrong while generating tokens")
		return
	}

	setTokenCookie(w, accessTokenCookie, pair.AccessToken, pair.ExpiresAt)
	setTokenCookie(w, refreshTokenCookie, pair.RefreshToken, h.tokens.RefreshTokenExpiry())

	writeJSON(w, http.StatusOK, LoginResponse{
		Status:       http.StatusOK,
		Message:      "Logged in successfully",
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type LogoutResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r)
	if userID == "" {
		unauthorized(w, "Unauthorized request")
		return
	}

	// Idempotent: clearing an already-empty slot is fine, only a missing
	// user is an error.
	if err := h.users.SetRefreshToken(userID, ""); err != nil && !errors.Is(err, db.ErrNotFound) {
		slog.Error("error clearing refresh token", "error", err, "user_id", userID)
		internalError(w, "")
		return
	}

	clearTokenCookie(w, accessTokenCookie)
	clearTokenCookie(w, refreshTokenCookie)

	writeJSON(w, http.StatusOK, LogoutResponse{
		Status:  http.StatusOK,
		Message: "User logged out successfully",
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	Status       int    `json:"status"`
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// POST /api/v1/auth/refresh-token
func (h *AuthHandler) RefreshAccessToken(w http.ResponseWriter, r *http.Request) {
	incoming := h.incomingRefreshToken(r)
	if incoming == "" {
		unauthorized(w, "Unauthorized request")
		return
	}

	claims, err := h.tokens.VerifyRefreshToken(incoming)
	if err != nil {
		unauthorized(w, "Invalid refresh token")
		return
	}

	user, err := h.users.FindByID(claims.UserID)
	if errors.Is(err, db.ErrNotFound) {
		unauthorized(w, "Invalid refresh token")
		return
	}
	if err != nil {
		slog.Error("error finding user", "error", err)
		internalError(w, "")
		return
	}

	// Replay detection: only the single most recently issued refresh
	// token lives in the slot, so a superseded token never matches even
	// while its own signature and expiry are still valid.
	if !user.HasRefreshToken() ||
		subtle.ConstantTimeCompare([]byte(incoming), []byte(user.RefreshToken)) != 1 {
		unauthorized(w, "Refresh token is expired or used")
		return
	}

	pair, err := h.issueSession(user)
	if err != nil {
		slog.Error("error rotating session tokens", "error", err, "user_id", user.ID)
		internalError(w, "Something went wrong while generating tokens")
		return
	}

	setTokenCookie(w, accessTokenCookie, pair.AccessToken, pair.ExpiresAt)
	setTokenCookie(w, refreshTokenCookie, pair.RefreshToken, h.tokens.RefreshTokenExpiry())

	writeJSON(w, http.StatusOK, RefreshTokenResponse{
		Status:       http.StatusOK,
		Message:      "Token refreshed successfully",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// issueSession mints an access+refresh pair and persists the refresh
// token into the user's slot, superseding whatever was there before.
func (h *AuthHandler) issueSession(user *models.User) (*auth.TokenPair, error) {
	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	if err := h.users.SetRefreshToken(user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}

	return pair, nil
}

func (h *AuthHandler) incomingRefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

func (h *AuthHandler) storeProfileImage(
	w http.ResponseWriter,
	r *http.Request,
	kind blob.Kind,
	file multipart.File,
	header *multipart.FileHeader,
) (string, *blob.StoredBlob, bool) {
	stored, err := h.blobs.Save(r.Context(), kind, header.Filename, file)
	if err != nil {
		handleBlobSaveError(w, err)
		return "", nil, false
	}

	record := &models.Blob{
		ID:           stored.ID,
		Kind:         string(stored.Kind),
		StoragePath:  stored.StoragePath,
		MimeType:     stored.MimeType,
		SizeBytes:    stored.SizeBytes,
		OriginalName: stored.OriginalName,
		CreatedAt:    stored.CreatedAt,
	}
	if err := h.blobRecords.Create(record); err != nil {
		_ = h.blobs.Delete(stored.StoragePath)
		slog.Error("error creating blob record", "error", err, "kind", string(kind))
		internalError(w, "")
		return "", nil, false
	}

	return mediaurl.Blob(h.baseURL, stored.ID), stored, true
}

func (h *AuthHandler) discardStoredBlob(stored *blob.StoredBlob) {
	if stored == nil {
		return
	}
	if err := h.blobRecords.Delete(stored.ID); err != nil && !errors.Is(err, db.ErrNotFound) {
		slog.Warn("error deleting blob record", "error", err, "blob_id", stored.ID)
	}
	if err := h.blobs.Delete(stored.StoragePath); err != nil {
		slog.Warn("error deleting blob file", "error", err, "blob_id", stored.ID)
	}
}

func handleBlobSaveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, blob.ErrFileTooLarge):
		payloadTooLarge(w, "File exceeds maximum upload size")
	case errors.Is(err, blob.ErrDisallowedType):
		badRequest(w, "Unsupported file type")
	case errors.Is(err, blob.ErrExecutableFile):
		badRequest(w, "Executable files are not allowed")
	default:
		slog.Error("error saving blob", "error", err)
		internalError(w, "")
	}
}

func isBodyTooLargeError(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}
