package settings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, c.GetHeader("X-Test-User"))
		c.Next()
	}
	NewHandler(NewService(memstore.New())).RegisterRoutes(r.Group("/api"), auth)
	return r
}

func call(r *gin.Engine, user, method, path string, body interface{}) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetDefaultsToEmptyObject(t *testing.T) {
	r := newEngine()
	w := call(r, "u1", http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "{}", w.Body.String())
}

func TestReplaceNormalizesKeywords(t *testing.T) {
	r := newEngine()
	w := call(r, "u1", http.MethodPost, "/api/settings", gin.H{
		"subMenus": gin.H{"dev": []string{" React ", "", "API", "React"}, " ": []string{"x"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = call(r, "u1", http.MethodGet, "/api/settings", nil)
	var got models.CategoryKeywords
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.CategoryKeywords{"dev": {"React", "API"}}, got)

	// Full replace drops categories not sent.
	call(r, "u1", http.MethodPost, "/api/settings", gin.H{"subMenus": gin.H{"meeting": []string{"회의"}}})
	w = call(r, "u1", http.MethodGet, "/api/settings", nil)
	got = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.CategoryKeywords{"meeting": {"회의"}}, got)

	w = call(r, "u2", http.MethodGet, "/api/settings", nil)
	assert.JSONEq(t, "{}", w.Body.String())
}

func TestReplaceRequiresSubMenus(t *testing.T) {
	r := newEngine()
	w := call(r, "u1", http.MethodPost, "/api/settings", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplaceCategoryAndMenus(t *testing.T) {
	r := newEngine()
	call(r, "u1", http.MethodPost, "/api/settings", gin.H{"subMenus": gin.H{"dev": []string{"Go"}}})

	w := call(r, "u1", http.MethodPut, "/api/settings/research", gin.H{"keywords": []string{"논문", "논문"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = call(r, "u1", http.MethodGet, "/api/settings", nil)
	assert.JSONEq(t, `{"dev":["Go"],"research":["논문"]}`, w.Body.String())

	w = call(r, "u1", http.MethodGet, "/api/menus", nil)
	var menus []Menu
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &menus))
	require.Len(t, menus, len(BuiltInMenus)+1)
	assert.Equal(t, "research", menus[len(menus)-1].ID)
	assert.False(t, menus[len(menus)-1].BuiltIn)
}
