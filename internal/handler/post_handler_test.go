package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bloggiz/docs"
	"bloggiz/internal/auth"
	"bloggiz/internal/cache"
	"bloggiz/internal/config"
	"bloggiz/internal/handler"
	"bloggiz/internal/model"
	"bloggiz/internal/repository"
	"bloggiz/internal/router"
	"bloggiz/internal/service"
)

type testServer struct {
	echo *echo.Echo
	db   *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "bloggiz_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}))

	mr := miniredis.RunT(t)
	cacheClient := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	cfg := &config.Config{JWTSecret: "test-secret", SwaggerHost: "api.test.local"}
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	resolver := auth.NewResolver(jwtService, tokenStore)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	e := echo.New()
	router.Register(
		e,
		cfg,
		resolver,
		handler.NewAuthHandler(service.NewAuthService(userRepo, jwtService, tokenStore)),
		handler.NewPostHandler(service.NewPostService(postRepo, userRepo)),
		handler.NewUserHandler(service.NewUserService(userRepo, cacheClient)),
	)

	return &testServer{echo: e, db: db}
}

func (s *testServer) seedUser(t *testing.T, email, password, role string) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{Name: "Test " + role, Email: email, PasswordHash: string(hashed), Role: role}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func (s *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(payload))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

// login returns the access token issued for the given credentials.
func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (s *testServer) postCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, s.db.Model(&model.Post{}).Count(&count).Error)
	return count
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "admin@bloggiz.com", "admin123", model.RoleAdmin)

	t.Run("valid credentials", func(t *testing.T) {
		token := s.login(t, "admin@bloggiz.com", "admin123")
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wrongPass := s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "admin@bloggiz.com", "password": "nope",
		})
		unknown := s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "ghost@bloggiz.com", "password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.JSONEq(t, wrongPass.Body.String(), unknown.Body.String())
	})
}

func TestMutatingEndpointsRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedUser(t, "admin@bloggiz.com", "admin123", model.RoleAdmin)
	s.seedUser(t, "reader@bloggiz.com", "reader123", model.RoleUser)
	readerToken := s.login(t, "reader@bloggiz.com", "reader123")

	post := &model.Post{Title: "Existing", Slug: "existing", Content: "x", AuthorID: admin.ID}
	require.NoError(t, s.db.Create(post).Error)
	before := s.postCount(t)

	body := map[string]interface{}{"title": "X", "content": "Y", "slug": "x"}
	calls := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/posts/admin", nil},
		{http.MethodPost, "/api/posts", body},
		{http.MethodPut, "/api/posts/" + post.ID.String(), body},
		{http.MethodDelete, "/api/posts/" + post.ID.String(), nil},
	}

	for _, token := range []string{"", readerToken} {
		for _, call := range calls {
			rec := s.request(t, call.method, call.path, token, call.body)
			assert.Equalf(t, http.StatusUnauthorized, rec.Code, "%s %s with token=%q", call.method, call.path, token)
		}
	}

	// Denied requests performed no state change.
	assert.Equal(t, before, s.postCount(t))
	var got model.Post
	require.NoError(t, s.db.First(&got, "id = ?", post.ID).Error)
	assert.Equal(t, "Existing", got.Title)
}

func TestCreatePostValidation(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "admin@bloggiz.com", "admin123", model.RoleAdmin)
	token := s.login(t, "admin@bloggiz.com", "admin123")

	for _, body := range []map[string]interface{}{
		{"content": "B", "slug": "a"},
		{"title": "A", "slug": "a"},
		{"title": "A", "content": "B"},
	} {
		rec := s.request(t, http.MethodPost, "/api/posts", token, body)
		assert.Equalf(t, http.StatusBadRequest, rec.Code, "body %v", body)
	}
	assert.EqualValues(t, 0, s.postCount(t))
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "admin@bloggiz.com", "admin123", model.RoleAdmin)
	token := s.login(t, "admin@bloggiz.com", "admin123")

	// Create a draft.
	rec := s.request(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title": "A", "content": "B", "slug": "a",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "A", created.Title)
	assert.Equal(t, "B", created.Content)
	assert.Equal(t, "a", created.Slug)
	assert.False(t, created.Published)
	assert.Equal(t, "admin@bloggiz.com", created.Author.Email, "created post comes back with author populated")

	postURL := "/api/posts/" + created.ID.String()

	// Same slug again conflicts.
	rec = s.request(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title": "A2", "content": "B2", "slug": "a",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "SLUG_TAKEN")

	// The draft is invisible to anonymous readers.
	rec = s.request(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = s.request(t, http.MethodGet, postURL, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/posts/slug/a", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// But the admin sees it, both in the admin listing and directly.
	rec = s.request(t, http.MethodGet, "/api/posts/admin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rec = s.request(t, http.MethodGet, postURL, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/posts/slug/a", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Publish it with a partial update; other fields stay put.
	rec = s.request(t, http.MethodPut, postURL, token, map[string]interface{}{
		"published": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.Published)
	assert.Equal(t, "A", updated.Title)
	assert.Equal(t, "B", updated.Content)

	// Now it appears publicly.
	rec = s.request(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var published []model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &published))
	require.Len(t, published, 1)
	assert.Equal(t, created.ID, published[0].ID)
	assert.Equal(t, "admin@bloggiz.com", published[0].Author.Email)

	rec = s.request(t, http.MethodGet, "/api/posts/slug/a", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Delete and verify it is gone.
	rec = s.request(t, http.MethodDelete, postURL, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "post deleted successfully")

	rec = s.request(t, http.MethodGet, postURL, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, 0, s.postCount(t))
}

func TestUpdateAndDeleteUnknownID(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "admin@bloggiz.com", "admin123", model.RoleAdmin)
	token := s.login(t, "admin@bloggiz.com", "admin123")

	missing := "/api/posts/00000000-0000-0000-0000-000000000000"

	rec := s.request(t, http.MethodPut, missing, token, map[string]interface{}{"title": "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.request(t, http.MethodDelete, missing, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A malformed id behaves like an unknown one.
	rec = s.request(t, http.MethodGet, "/api/posts/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrdering(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "admin@bloggiz.com", "admin123", model.RoleAdmin)
	token := s.login(t, "admin@bloggiz.com", "admin123")

	for i := 0; i < 3; i++ {
		rec := s.request(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
			"title": fmt.Sprintf("Post %d", i), "content": "x", "slug": fmt.Sprintf("post-%d", i), "published": true,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	// Force distinct creation times, oldest first.
	var posts []model.Post
	require.NoError(t, s.db.Order("created_at").Find(&posts).Error)
	for i := range posts {
		require.NoError(t, s.db.Model(&posts[i]).
			Update("created_at", gorm.Expr("datetime(created_at, ?)", fmt.Sprintf("-%d minutes", len(posts)-i))).Error)
	}

	rec := s.request(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []model.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 3)
	for i := 1; i < len(listed); i++ {
		assert.False(t, listed[i].CreatedAt.After(listed[i-1].CreatedAt), "listing is newest-first")
	}
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "admin@bloggiz.com", "admin123", model.RoleAdmin)
	token := s.login(t, "admin@bloggiz.com", "admin123")

	rec := s.request(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "admin@bloggiz.com", me.Email)
	assert.Equal(t, model.RoleAdmin, me.Role)
	assert.NotContains(t, rec.Body.String(), "password", "hash never leaves the server")

	rec = s.request(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUsers(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "admin@bloggiz.com", "admin123", model.RoleAdmin)
	s.seedUser(t, "reader@bloggiz.com", "reader123", model.RoleUser)

	t.Run("admin sees every account", func(t *testing.T) {
		token := s.login(t, "admin@bloggiz.com", "admin123")
		rec := s.request(t, http.MethodGet, "/api/users", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var users []model.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		require.Len(t, users, 2)
		assert.NotContains(t, rec.Body.String(), "password", "hash never leaves the server")
	})

	t.Run("reader and anonymous are rejected", func(t *testing.T) {
		token := s.login(t, "reader@bloggiz.com", "reader123")
		rec := s.request(t, http.MethodGet, "/api/users", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = s.request(t, http.MethodGet, "/api/users", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSwaggerHostApplied(t *testing.T) {
	newTestServer(t)
	assert.Equal(t, "api.test.local", docs.SwaggerInfo.Host)
}

func TestRegisterAndLogout(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "reader@bloggiz.com", "password": "reader123", "name": "Reader",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Registration never grants ADMIN.
	var user model.User
	require.NoError(t, s.db.First(&user, "email = ?", "reader@bloggiz.com").Error)
	assert.Equal(t, model.RoleUser, user.Role)

	rec = s.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "reader@bloggiz.com", "password": "other", "name": "Imposter",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Login, then logout with the refresh token; the access token dies too.
	loginRec := s.request(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "reader@bloggiz.com", "password": "reader123",
	})
	require.Equal(t, http.StatusOK, loginRec.Code)
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &tokens))

	rec = s.request(t, http.MethodGet, "/api/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(t, http.MethodPost, "/api/auth/logout", tokens.AccessToken, map[string]string{
		"refresh_token": tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(t, http.MethodGet, "/api/me", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "revoked session no longer resolves")

	rec = s.request(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh token was invalidated")
}
