package mockapi

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/codenestai/client/internal/auth"
	"github.com/codenestai/client/internal/logging"
	"github.com/codenestai/client/internal/middleware"
	"github.com/codenestai/client/internal/models"
)

// SessionManager issues, rotates and validates the credential pairs handed to clients.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (auth.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (auth.Tokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// GoogleIdentity is the verified content of a Google ID token.
type GoogleIdentity struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
}

// GoogleVerifier checks Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (GoogleIdentity, error)
}

// EmailTokenVerifier accepts any ID token that is itself an email address. It stands in for
// Google during local runs.
type EmailTokenVerifier struct{}

// Verify implements GoogleVerifier.
func (EmailTokenVerifier) Verify(_ context.Context, idToken string) (GoogleIdentity, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(idToken))
	if err != nil {
		return GoogleIdentity{}, errors.New("invalid google id token")
	}
	email := strings.ToLower(addr.Address)
	local, _, _ := strings.Cut(email, "@")
	return GoogleIdentity{Subject: "google-" + email, Email: email, FirstName: local}, nil
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleRequest struct {
	IDToken string `json:"idToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthHandler implements the credential endpoints.
type AuthHandler struct {
	Store    *Store
	Sessions SessionManager
	Verifier GoogleVerifier
	Limiter  middleware.RateLimiter
	HashCost int
}

// Register handles POST /api/auth/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	fields := map[string]string{}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "Must be a valid email"
	}
	if len(req.Password) < 8 {
		fields["password"] = "Password must be at least 8 characters"
	}
	if strings.TrimSpace(req.FirstName) == "" {
		fields["firstName"] = "First name is required"
	}
	if strings.TrimSpace(req.LastName) == "" {
		fields["lastName"] = "Last name is required"
	}
	if len(fields) > 0 {
		logger.Warn("register validation failed", "fields", fields)
		respondValidation(ctx, w, fields)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost())
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.Store.CreateUser(models.User{
		Email:     req.Email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}, hashed)
	if errors.Is(err, ErrConflict) {
		respondError(ctx, w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		logger.Error("register failed to persist user", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.respondAuth(w, r, user)
}

// Login handles POST /api/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, w, r, "login") {
		logger.Warn("login rate limited", "ip", clientIP(r))
		respondError(ctx, w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, hash, err := h.Store.FindByEmail(req.Email)
	if err != nil {
		logger.Warn("login user lookup failed", "email", req.Email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	if len(hash) == 0 || bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusBadRequest, "Invalid email or password")
		return
	}

	h.respondAuth(w, r, user)
}

// Google handles POST /api/auth/google. Unknown Google accounts are registered on first use.
func (h AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req googleRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid google payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	verifier := h.Verifier
	if verifier == nil {
		verifier = EmailTokenVerifier{}
	}
	identity, err := verifier.Verify(ctx, req.IDToken)
	if err != nil {
		logger.Warn("google token rejected", "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "Google token verification failed: "+err.Error())
		return
	}

	user, _, err := h.Store.FindByEmail(identity.Email)
	if errors.Is(err, ErrNotFound) {
		user, err = h.Store.CreateUser(models.User{
			Email:     identity.Email,
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
		}, nil)
	}
	if err != nil {
		logger.Error("google sign-in failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.respondAuth(w, r, user)
}

// Refresh handles POST /api/auth/refresh. The presented refresh token is rotated.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrRefreshTokenExpired) {
			logger.Warn("refresh rejected", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "Invalid refresh token")
			return
		}
		logger.Error("refresh failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user, err := h.Store.User(tokens.UserID)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "User not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         user,
	})
}

// Me handles GET /api/auth/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	respondJSON(r.Context(), w, http.StatusOK, user)
}

func (h AuthHandler) respondAuth(w http.ResponseWriter, r *http.Request, user models.User) {
	ctx := r.Context()
	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(ctx, w, http.StatusOK, models.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         user,
	})
}

func (h AuthHandler) cost() int {
	if h.HashCost == 0 {
		return bcrypt.DefaultCost
	}
	return h.HashCost
}

type userCtxKey struct{}

func withUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

func currentUser(ctx context.Context) models.User {
	user, _ := ctx.Value(userCtxKey{}).(models.User)
	return user
}

// requireUser resolves the bearer token into the calling user. Missing, unknown and expired
// tokens are all answered with 401.
func requireUser(sessions SessionManager, store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			userID, err := sessions.Authenticate(ctx, token)
			if err != nil {
				logger.Info("bearer token rejected", "error", err)
				respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			user, err := store.User(userID)
			if err != nil {
				respondError(ctx, w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx = logging.WithLogger(ctx, logger.With("userId", user.ID))
			next.ServeHTTP(w, r.WithContext(withUser(ctx, user)))
		})
	}
}

// requireRole admits only users holding one of roles. It must run after requireUser.
func requireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r.Context())
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(r.Context(), w, http.StatusForbidden, "Access Denied")
		})
	}
}
