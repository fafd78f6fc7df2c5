package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VanshSharma0/MyTube/internal/controller"
	"github.com/VanshSharma0/MyTube/internal/models"
	"github.com/VanshSharma0/MyTube/internal/service"
	"github.com/VanshSharma0/MyTube/internal/storage/memory"
	redisstorage "github.com/VanshSharma0/MyTube/internal/storage/redis"
	"github.com/VanshSharma0/MyTube/internal/util"
)

type fakeUploader struct{}

func (fakeUploader) Upload(_ context.Context, r io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "https://cdn.example.com/media/object.png", nil
}

func newTestServer(t *testing.T, rateLimit int) *echo.Echo {
	t.Helper()

	log := zap.NewNop().Sugar()

	tokenCfg := &util.TokenConfig{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
	serverCfg := &util.ServerConfig{CookieSecure: true}

	repo := memory.NewUserRepository()
	tokens := service.NewTokenService(tokenCfg)
	authService := service.NewAuthService(repo, tokens, log)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	limiter := redisstorage.NewRateLimiter(client, &util.RateLimiterConfig{
		Limit:     rateLimit,
		Interval:  time.Minute,
		BlockTime: time.Minute,
	})

	c := controller.NewController(authService, fakeUploader{}, serverCfg, tokenCfg, log)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(log)
	controller.RegisterHandlersWithBaseURL(e, c, "/api/v1", RequireAuth(authService), RateLimit(limiter, log))

	return e
}

func registerBody(t *testing.T, withAvatar bool) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fields := map[string]string{
		"fullname": "Test User",
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withAvatar {
		fw, err := w.CreateFormFile("avatar", "avatar.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake-png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

func doRequest(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, e *echo.Echo) {
	t.Helper()

	body, contentType := registerBody(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set(echo.HeaderContentType, contentType)

	rec := doRequest(e, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func loginUser(t *testing.T, e *echo.Echo) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		bytes.NewBufferString(`{"username":"testuser","password":"password123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()

	var envelope models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestRegister_RequiresAvatar(t *testing.T) {
	e := newTestServer(t, 100)

	body, contentType := registerBody(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set(echo.HeaderContentType, contentType)

	rec := doRequest(e, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	assert.Equal(t, "Avatar is required", envelope.Message)
}

func TestRegister_Duplicate(t *testing.T) {
	e := newTestServer(t, 100)
	registerUser(t, e)

	body, contentType := registerBody(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set(echo.HeaderContentType, contentType)

	rec := doRequest(e, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	e := newTestServer(t, 100)
	registerUser(t, e)

	rec := loginUser(t, e)

	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
	assert.Equal(t, "User logged in successfully", envelope.Message)

	for _, name := range []string{models.AccessTokenCookie, models.RefreshTokenCookie} {
		cookie := findCookie(t, rec, name)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly, "%s must be httpOnly", name)
		assert.True(t, cookie.Secure, "%s must be secure", name)
	}
}

func TestCurrentUser_CookieAndBearer(t *testing.T) {
	e := newTestServer(t, 100)
	registerUser(t, e)
	rec := loginUser(t, e)
	accessCookie := findCookie(t, rec, models.AccessTokenCookie)

	// Via cookie.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(accessCookie)
	res := doRequest(e, req)
	assert.Equal(t, http.StatusOK, res.Code)

	// Via Authorization header.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessCookie.Value)
	res = doRequest(e, req)
	assert.Equal(t, http.StatusOK, res.Code)

	// Without a token.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	res = doRequest(e, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	// With a mangled token.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	res = doRequest(e, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRefresh_RotationViaCookie(t *testing.T) {
	e := newTestServer(t, 100)
	registerUser(t, e)
	rec := loginUser(t, e)
	oldRefresh := findCookie(t, rec, models.RefreshTokenCookie)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(oldRefresh)
	res := doRequest(e, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	newRefresh := findCookie(t, res, models.RefreshTokenCookie)
	assert.NotEqual(t, oldRefresh.Value, newRefresh.Value)

	// The superseded token is rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(oldRefresh)
	res = doRequest(e, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	envelope := decodeEnvelope(t, res)
	assert.Equal(t, "Refresh token is expired or used", envelope.Message)

	// The fresh one still works.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(newRefresh)
	res = doRequest(e, req)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRefresh_ViaBody(t *testing.T) {
	e := newTestServer(t, 100)
	registerUser(t, e)
	rec := loginUser(t, e)
	refresh := findCookie(t, rec, models.RefreshTokenCookie)

	payload, err := json.Marshal(models.RefreshRequest{RefreshToken: refresh.Value})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewBuffer(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := doRequest(e, req)
	assert.Equal(t, http.StatusOK, res.Code, res.Body.String())
}

func TestRefresh_NoToken(t *testing.T) {
	e := newTestServer(t, 100)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	res := doRequest(e, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogout_ClearsSession(t *testing.T) {
	e := newTestServer(t, 100)
	registerUser(t, e)
	rec := loginUser(t, e)
	accessCookie := findCookie(t, rec, models.AccessTokenCookie)
	refreshCookie := findCookie(t, rec, models.RefreshTokenCookie)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(accessCookie)
	res := doRequest(e, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	// Cookies are cleared, not just expired.
	for _, name := range []string{models.AccessTokenCookie, models.RefreshTokenCookie} {
		cookie := findCookie(t, res, name)
		assert.Empty(t, cookie.Value)
	}

	// The previously valid refresh token no longer matches anything.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(refreshCookie)
	res = doRequest(e, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	e := newTestServer(t, 2)
	registerUser(t, e)

	// Registration consumed one slot, login the second; the next is blocked.
	loginUser(t, e)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		bytes.NewBufferString(`{"username":"testuser","password":"password123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res := doRequest(e, req)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
}
