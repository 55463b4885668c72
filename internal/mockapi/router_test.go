package mockapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/codenestai/client/internal/api"
	"github.com/codenestai/client/internal/auth"
	"github.com/codenestai/client/internal/middleware"
	"github.com/codenestai/client/internal/models"
	"github.com/codenestai/client/internal/session"
	"github.com/codenestai/client/internal/tokens"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testBackend struct {
	server   *httptest.Server
	store    *Store
	sessions *auth.Manager
	clock    *testClock
	registry *prometheus.Registry
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	store := NewStore()
	require.NoError(t, Seed(store, bcrypt.MinCost))

	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	sessions := auth.NewManager(time.Minute, time.Hour, auth.NewInMemorySessionStore())
	sessions.WithNowFunc(clock.Now)

	registry := prometheus.NewRegistry()
	server := httptest.NewServer(NewRouter(Dependencies{
		Store:        store,
		Sessions:     sessions,
		LoginLimiter: middleware.NewIPRateLimiter(100, time.Minute, 100, time.Minute),
		HashCost:     bcrypt.MinCost,
		Registry:     registry,
	}))
	t.Cleanup(server.Close)

	return &testBackend{server: server, store: store, sessions: sessions, clock: clock, registry: registry}
}

func (b *testBackend) signIn(t *testing.T, email, password string) (*session.Session, *api.Client, *tokens.MemoryStore) {
	t.Helper()
	store := tokens.NewMemoryStore()
	client := api.New(b.server.URL+"/api", store)
	s := session.New(client)
	require.NoError(t, s.Restore(context.Background()))
	require.NoError(t, s.Login(context.Background(), email, password))
	return s, client, store
}

func TestLoginAndEnrollmentJourney(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	s, client, _ := backend.signIn(t, StudentEmail, StudentPassword)
	assert.Equal(t, models.RoleStudent, s.User().Role)

	courses, err := client.Courses.List(ctx, api.CourseListOptions{})
	require.NoError(t, err)
	require.Len(t, courses.Content, 2)
	assert.Equal(t, 20, courses.Size)

	course, err := client.Courses.Get(ctx, "go-fundamentals")
	require.NoError(t, err)
	lessons, err := client.Courses.Lessons(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 3)

	enrollment, err := client.Enrollments.Enroll(ctx, course.ID, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", enrollment.Status)

	_, err = client.Enrollments.Enroll(ctx, course.ID, "")
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Already enrolled in this course", apiErr.Detail())
	assert.Equal(t, api.KindApplication, api.KindOf(err))

	status, err := client.Enrollments.Status(ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, status.Enrolled)

	for _, lesson := range lessons {
		require.NoError(t, client.Enrollments.MarkComplete(ctx, enrollment.ID, lesson.ID))
	}
	progress, err := client.Enrollments.Progress(ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), progress.CompletionPercent)
	assert.Equal(t, "COMPLETED", progress.Status)

	require.NoError(t, client.Enrollments.Cancel(ctx, enrollment.ID))
	list, err := client.Enrollments.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "CANCELLED", list[0].Status)
}

func TestExpiredAccessTokenIsRefreshedTransparently(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	_, client, store := backend.signIn(t, StudentEmail, StudentPassword)
	before, err := tokens.LoadPair(ctx, store)
	require.NoError(t, err)

	backend.clock.Advance(2 * time.Minute)

	user, err := client.Users.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, StudentEmail, user.Email)

	after, err := tokens.LoadPair(ctx, store)
	require.NoError(t, err)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken, "refresh tokens rotate")

	_, err = backend.sessions.Refresh(ctx, before.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestExpiredRefreshTokenEndsSession(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	_, client, store := backend.signIn(t, StudentEmail, StudentPassword)

	backend.clock.Advance(2 * time.Hour)

	_, err := client.Enrollments.List(ctx)
	require.Error(t, err)
	assert.True(t, api.IsSessionExpired(err))
	assert.Equal(t, api.SessionExpiredMessage, apiError(t, err).Message)
	assert.Equal(t, tokens.Pair{}, mustPair(t, store))
}

func TestInvalidCredentialsAndValidation(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	client := api.New(backend.server.URL+"/api", tokens.NewMemoryStore())

	_, err := client.Auth.Login(ctx, StudentEmail, "wrong-password")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))
	assert.Equal(t, "Invalid email or password", apiError(t, err).Detail())

	_, err = client.Auth.Register(ctx, api.RegisterRequest{Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(err))
	detail := apiError(t, err).Detail()
	assert.Contains(t, detail, "email: Must be a valid email")
	assert.Contains(t, detail, "password: Password must be at least 8 characters")

	_, err = client.Auth.Register(ctx, api.RegisterRequest{Email: StudentEmail, Password: "long-enough", FirstName: "A", LastName: "B"})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", apiError(t, err).Detail())

	resp, err := client.Auth.Register(ctx, api.RegisterRequest{Email: "new@codenest.dev", Password: "long-enough", FirstName: "New", LastName: "User"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "new@codenest.dev", resp.User.Email)
}

func TestGoogleSignInCreatesAccountOnce(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	client := api.New(backend.server.URL+"/api", tokens.NewMemoryStore())

	first, err := client.Auth.Google(ctx, "gopher@gmail.com")
	require.NoError(t, err)
	second, err := client.Auth.Google(ctx, "gopher@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err = client.Auth.Google(ctx, "not a token")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
	assert.False(t, api.IsSessionExpired(err), "a 401 from an unauthenticated endpoint is an application error")
}

func TestRoleRestrictedEndpoints(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	_, student, _ := backend.signIn(t, StudentEmail, StudentPassword)
	_, err := student.Courses.Mine(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))

	_, instructor, _ := backend.signIn(t, InstructorEmail, InstructorPassword)
	mine, err := instructor.Courses.Mine(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	threads, err := student.Forum.Threads(ctx, "general", api.PageOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, threads.Content)
	threadID := threads.Content[0].ID

	err = student.Forum.LockThread(ctx, threadID)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))

	_, admin, _ := backend.signIn(t, AdminEmail, AdminPassword)
	require.NoError(t, admin.Forum.LockThread(ctx, threadID))
	require.NoError(t, admin.Forum.PinThread(ctx, threadID))

	_, err = student.Forum.Reply(ctx, threadID, "too late")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, api.StatusOf(err))

	thread, err := student.Forum.Thread(ctx, threadID)
	require.NoError(t, err)
	assert.True(t, thread.IsLocked)
	assert.True(t, thread.IsPinned)
}

func TestCommunityAndForumFlows(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	_, author, _ := backend.signIn(t, StudentEmail, StudentPassword)
	_, other, _ := backend.signIn(t, InstructorEmail, InstructorPassword)

	post, err := author.Community.Create(ctx, api.PostInput{Title: "Help", Content: "How do channels work?", Type: models.PostTypeQuestion})
	require.NoError(t, err)
	assert.Equal(t, models.PostTypeQuestion, post.Type)

	liked, err := other.Community.Like(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)

	_, err = other.Community.Update(ctx, post.ID, api.PostInput{Title: "Hijack"})
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))

	comment, err := other.Community.AddComment(ctx, post.ID, "Read the concurrency course.")
	require.NoError(t, err)
	require.NoError(t, other.Community.DeleteComment(ctx, comment.ID))

	questions, err := author.Community.Posts(ctx, api.PostListOptions{Type: models.PostTypeQuestion})
	require.NoError(t, err)
	require.Len(t, questions.Content, 1)

	require.NoError(t, author.Community.DeletePost(ctx, post.ID))
	_, err = author.Community.Post(ctx, post.ID)
	assert.Equal(t, http.StatusNotFound, api.StatusOf(err))

	thread, err := author.Forum.CreateThread(ctx, "go", "Generics", "When should I use them?")
	require.NoError(t, err)
	reply, err := other.Forum.Reply(ctx, thread.ID, "When the types vary but the algorithm does not.")
	require.NoError(t, err)

	_, err = other.Forum.AcceptReply(ctx, reply.ID)
	assert.Equal(t, http.StatusForbidden, api.StatusOf(err))
	accepted, err := author.Forum.AcceptReply(ctx, reply.ID)
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)

	replies, err := author.Forum.Replies(ctx, thread.ID, api.PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, 50, replies.Size)
	assert.Len(t, replies.Content, 1)

	require.NoError(t, other.Forum.DeleteReply(ctx, reply.ID))
	require.NoError(t, author.Forum.DeleteThread(ctx, thread.ID))
}

func TestProfileUpdate(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	s, client, _ := backend.signIn(t, StudentEmail, StudentPassword)

	bio := "Learning Go"
	user, err := s.UpdateProfile(ctx, models.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, user.Bio)
	assert.Equal(t, bio, *user.Bio)

	empty := ""
	_, err = client.Users.Update(ctx, models.UpdateProfileRequest{FirstName: &empty})
	require.Error(t, err)
	assert.Contains(t, apiError(t, err).Detail(), "firstName")

	public, err := client.Users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, bio, *public.Bio)
}

func TestLoginRateLimit(t *testing.T) {
	store := NewStore()
	require.NoError(t, Seed(store, bcrypt.MinCost))
	server := httptest.NewServer(NewRouter(Dependencies{
		Store:        store,
		Sessions:     auth.NewManager(time.Minute, time.Hour, auth.NewInMemorySessionStore()),
		LoginLimiter: middleware.NewIPRateLimiter(1, time.Minute, 1, time.Minute),
		HashCost:     bcrypt.MinCost,
	}))
	t.Cleanup(server.Close)

	client := api.New(server.URL+"/api", tokens.NewMemoryStore())
	_, err := client.Auth.Login(context.Background(), StudentEmail, StudentPassword)
	require.NoError(t, err)

	_, err = client.Auth.Login(context.Background(), StudentEmail, StudentPassword)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, api.StatusOf(err))

	resp, err := http.Post(server.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"`+StudentEmail+`","password":"`+StudentPassword+`"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestHealthMetricsAndCORS(t *testing.T) {
	backend := newTestBackend(t)

	resp, err := http.Get(backend.server.URL + "/healthz")
	require.NoError(t, err)
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])

	resp, err = http.Get(backend.server.URL + "/api/courses/go-fundamentals")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	resp, err = http.Get(backend.server.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `codenest_mockapi_requests_total{method="GET",route="/api/courses/{ref}",status="200"} 1`))

	req, err := http.NewRequest(http.MethodOptions, backend.server.URL+"/api/enrollments", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:19006")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:19006", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestUnauthenticatedRequestsGet401(t *testing.T) {
	backend := newTestBackend(t)

	for _, path := range []string{"/api/auth/me", "/api/users/me", "/api/enrollments"} {
		resp, err := http.Get(backend.server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func apiError(t *testing.T, err error) *api.Error {
	t.Helper()
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	return apiErr
}

func mustPair(t *testing.T, store tokens.Store) tokens.Pair {
	t.Helper()
	pair, err := tokens.LoadPair(context.Background(), store)
	require.NoError(t, err)
	return pair
}
