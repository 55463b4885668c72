package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenestai/client/internal/api"
	"github.com/codenestai/client/internal/models"
	"github.com/codenestai/client/internal/tokens"
)

type fakeBackend struct {
	mu          sync.Mutex
	validAccess string
	meCalls     int
	authHeaders []string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			http.Error(w, `{"error":"Invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		b.validAccess = "AT1"
		writeJSON(w, models.AuthResponse{AccessToken: "AT1", RefreshToken: "RT1", User: models.User{ID: "u1", Email: body.Email}})

	case r.Method == http.MethodPost && r.URL.Path == "/auth/register":
		b.validAccess = "AT-reg"
		writeJSON(w, models.AuthResponse{AccessToken: "AT-reg", RefreshToken: "RT-reg", User: models.User{ID: "u2", Email: "new@b.com"}})

	case r.Method == http.MethodPost && r.URL.Path == "/auth/google":
		b.validAccess = "AT-g"
		writeJSON(w, models.AuthResponse{AccessToken: "AT-g", RefreshToken: "RT-g", User: models.User{ID: "u3"}})

	case r.URL.Path == "/auth/refresh":
		http.Error(w, "invalid refresh token", http.StatusUnauthorized)

	case r.URL.Path == "/auth/me":
		b.meCalls++
		if r.Header.Get("Authorization") != "Bearer "+b.validAccess || b.validAccess == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, models.User{ID: "u1", Email: "a@b.com"})

	case r.URL.Path == "/enrollments":
		b.authHeaders = append(b.authHeaders, r.Header.Get("Authorization"))
		http.Error(w, "unauthorized", http.StatusUnauthorized)

	case r.Method == http.MethodPut && r.URL.Path == "/users/me":
		if r.Header.Get("Authorization") != "Bearer "+b.validAccess {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req models.UpdateProfileRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, models.User{ID: "u1", Email: "a@b.com", Bio: req.Bio})

	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func newTestSession(t *testing.T, backend *fakeBackend) (*Session, *api.Client, *tokens.MemoryStore) {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	store := tokens.NewMemoryStore()
	client := api.New(server.URL, store)
	return New(client), client, store
}

func storedPair(t *testing.T, store tokens.Store) tokens.Pair {
	t.Helper()
	pair, err := tokens.LoadPair(context.Background(), store)
	require.NoError(t, err)
	return pair
}

func TestLoginStoresPairAndAuthenticates(t *testing.T) {
	s, _, store := newTestSession(t, &fakeBackend{})
	ctx := context.Background()

	require.NoError(t, s.Restore(ctx))
	require.False(t, s.IsAuthenticated())

	require.NoError(t, s.Login(ctx, "a@b.com", "secret"))

	access, err := store.Get(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "AT1", access)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, Authenticated, s.State())
	require.NotNil(t, s.User())
	assert.Equal(t, "u1", s.User().ID)
}

func TestFailedLoginLeavesStateUnchanged(t *testing.T) {
	s, _, store := newTestSession(t, &fakeBackend{})
	ctx := context.Background()
	require.NoError(t, s.Restore(ctx))

	err := s.Login(ctx, "a@b.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, Anonymous, s.State())
	assert.Equal(t, tokens.Pair{}, storedPair(t, store))
}

func TestRegisterAndGoogleSignIn(t *testing.T) {
	s, _, store := newTestSession(t, &fakeBackend{})
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, api.RegisterRequest{Email: "new@b.com", Password: "secret", FirstName: "N", LastName: "B"}))
	assert.Equal(t, "u2", s.User().ID)
	assert.Equal(t, tokens.Pair{AccessToken: "AT-reg", RefreshToken: "RT-reg"}, storedPair(t, store))

	require.NoError(t, s.LoginWithGoogle(ctx, "google-id-token"))
	assert.Equal(t, "u3", s.User().ID)
	assert.Equal(t, tokens.Pair{AccessToken: "AT-g", RefreshToken: "RT-g"}, storedPair(t, store))
}

func TestRestoreWithValidTokenAuthenticatesWithoutLogin(t *testing.T) {
	backend := &fakeBackend{validAccess: "AT1"}
	s, _, store := newTestSession(t, backend)
	ctx := context.Background()
	require.NoError(t, store.SavePair(ctx, tokens.Pair{AccessToken: "AT1", RefreshToken: "RT1"}))

	assert.True(t, s.IsLoading())
	require.NoError(t, s.Restore(ctx))

	assert.False(t, s.IsLoading())
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "a@b.com", s.User().Email)
	assert.Equal(t, 1, backend.meCalls)
}

func TestRestoreWithRejectedTokenClearsPair(t *testing.T) {
	backend := &fakeBackend{validAccess: "AT-other"}
	s, _, store := newTestSession(t, backend)
	ctx := context.Background()
	require.NoError(t, store.SavePair(ctx, tokens.Pair{AccessToken: "AT1", RefreshToken: "RT1"}))

	require.NoError(t, s.Restore(ctx))

	assert.False(t, s.IsLoading())
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, Anonymous, s.State())
	assert.Equal(t, tokens.Pair{}, storedPair(t, store))
}

func TestRestoreWithoutTokenSkipsNetwork(t *testing.T) {
	backend := &fakeBackend{}
	s, _, _ := newTestSession(t, backend)

	require.NoError(t, s.Restore(context.Background()))
	assert.Equal(t, Anonymous, s.State())
	assert.Zero(t, backend.meCalls)
}

func TestLogoutThenAuthCallSendsNoAuthorization(t *testing.T) {
	backend := &fakeBackend{}
	s, client, store := newTestSession(t, backend)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "a@b.com", "secret"))
	require.NoError(t, s.Logout(ctx))

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Equal(t, tokens.Pair{}, storedPair(t, store))

	_, err := client.Enrollments.List(ctx)
	require.Error(t, err)
	assert.True(t, api.IsSessionExpired(err))
	assert.Equal(t, []string{""}, backend.authHeaders)
}

func TestUpdateProfilePreservesTokens(t *testing.T) {
	s, _, store := newTestSession(t, &fakeBackend{})
	ctx := context.Background()
	require.NoError(t, s.Login(ctx, "a@b.com", "secret"))

	bio := "Gopher"
	user, err := s.UpdateProfile(ctx, models.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, user.Bio)
	assert.Equal(t, "Gopher", *user.Bio)

	require.NotNil(t, s.User().Bio)
	assert.Equal(t, "Gopher", *s.User().Bio)
	assert.Equal(t, tokens.Pair{AccessToken: "AT1", RefreshToken: "RT1"}, storedPair(t, store))
}

func TestPairInvariantAcrossOperations(t *testing.T) {
	s, client, store := newTestSession(t, &fakeBackend{})
	ctx := context.Background()

	complete := func() {
		pair := storedPair(t, store)
		assert.Equal(t, pair.AccessToken == "", pair.RefreshToken == "", "partial pair %+v", pair)
	}

	require.NoError(t, s.Login(ctx, "a@b.com", "secret"))
	complete()
	require.NoError(t, s.SetAuth(ctx, models.AuthResponse{AccessToken: "AT9", RefreshToken: "RT9", User: models.User{ID: "u1"}}))
	complete()
	_, _ = client.Enrollments.List(ctx) // refresh is rejected by the backend
	complete()
	require.NoError(t, s.Logout(ctx))
	complete()
}

func TestFromContext(t *testing.T) {
	s, _, _ := newTestSession(t, &fakeBackend{})

	ctx := WithAuth(context.Background(), s)
	assert.Same(t, s, FromContext(ctx))

	assert.Panics(t, func() { FromContext(context.Background()) })
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "restoring", Restoring.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "anonymous", Anonymous.String())
}
