package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/models"
	jwtpkg "github.com/smartwork/assistant/internal/pkg/jwt"
	"github.com/smartwork/assistant/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeOAuth struct {
	lastState string
	opts      int
	exchErr   error
}

func (f *fakeOAuth) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	f.lastState = state
	f.opts = len(opts)
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) Exchange(_ context.Context, code string, _ ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	if f.exchErr != nil {
		return nil, f.exchErr
	}
	return &oauth2.Token{AccessToken: "access-" + code, RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}, nil
}

type fakeTokens struct {
	saved map[string]*oauth2.Token
}

func (f *fakeTokens) Save(_ context.Context, userID string, tok *oauth2.Token) error {
	f.saved[userID] = tok
	return nil
}

type fixture struct {
	engine *gin.Engine
	oauth  *fakeOAuth
	store  *memstore.Store
	tokens *fakeTokens
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		engine: gin.New(),
		oauth:  &fakeOAuth{},
		store:  memstore.New(),
		tokens: &fakeTokens{saved: map[string]*oauth2.Token{}},
	}
	fetch := func(_ context.Context, tok *oauth2.Token) (*Profile, error) {
		return &Profile{ID: "google-sub-1", Email: "Kim@Example.com", Name: "Kim", Picture: "https://img"}, nil
	}
	opts := Options{
		SessionTTL: time.Hour,
		IsAdmin:    func(email string) bool { return email == "kim@example.com" },
	}
	NewHandler(f.oauth, fetch, f.store, f.tokens, opts, nil).RegisterRoutes(f.engine.Group("/api"), middleware.Auth())
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestGoogleRedirectSetsStateCookie(t *testing.T) {
	f := newFixture()
	w := f.do(httptest.NewRequest(http.MethodGet, "/api/auth/google?callback_url=/history", nil))

	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "accounts.example.com")
	assert.Equal(t, 2, f.oauth.opts)

	state := cookieNamed(w, stateCookie)
	require.NotNil(t, state)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, f.oauth.lastState, state.Value)

	claims, err := jwtpkg.ParseState(state.Value)
	require.NoError(t, err)
	assert.Equal(t, "/history", claims.CallbackURL)
}

func TestCallbackSignsInAndStoresToken(t *testing.T) {
	f := newFixture()
	state, err := jwtpkg.SignState("/history", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback/google?code=abc&state="+url.QueryEscape(state), nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
	w := f.do(req)

	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/history", w.Header().Get("Location"))

	session := cookieNamed(w, middleware.SessionCookie)
	require.NotNil(t, session)
	claims, err := jwtpkg.Parse(session.Value)
	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", claims.UserID)

	user, err := f.store.GetUser(context.Background(), "google-sub-1")
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", user.Email)
	require.NotNil(t, user.LastLoginAt)

	require.Contains(t, f.tokens.saved, "google-sub-1")
	assert.Equal(t, "access-abc", f.tokens.saved["google-sub-1"].AccessToken)

	// the session cookie now opens /auth/session
	sreq := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	sreq.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: session.Value})
	sw := f.do(sreq)
	require.Equal(t, http.StatusOK, sw.Code, sw.Body.String())
	var body struct {
		User    models.User `json:"user"`
		IsAdmin bool        `json:"isAdmin"`
	}
	require.NoError(t, json.Unmarshal(sw.Body.Bytes(), &body))
	assert.Equal(t, "Kim", body.User.Name)
	assert.True(t, body.IsAdmin)
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	f := newFixture()
	state, err := jwtpkg.SignState("/", time.Minute)
	require.NoError(t, err)
	other, err := jwtpkg.SignState("/", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback/google?code=abc&state="+url.QueryEscape(state), nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: other})
	w := f.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.tokens.saved)
}

func TestCallbackExchangeFailure(t *testing.T) {
	f := newFixture()
	f.oauth.exchErr = errors.New("invalid_grant")
	state, err := jwtpkg.SignState("/", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback/google?code=abc&state="+url.QueryEscape(state), nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
	w := f.do(req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_grant")
}

func TestSessionRequiresToken(t *testing.T) {
	f := newFixture()
	w := f.do(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture()
	w := f.do(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	require.Equal(t, http.StatusOK, w.Code)
	c := cookieNamed(w, middleware.SessionCookie)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.True(t, c.MaxAge < 0)
}

func TestSafeCallback(t *testing.T) {
	assert.Equal(t, "/", safeCallback(""))
	assert.Equal(t, "/", safeCallback("https://evil.example.com"))
	assert.Equal(t, "/", safeCallback("//evil.example.com"))
	assert.Equal(t, "/history?x=1", safeCallback("/history?x=1"))
}
