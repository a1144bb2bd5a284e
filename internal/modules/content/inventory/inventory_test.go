package inventory

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
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInventoryCRUD(t *testing.T) {
	r := newEngine()

	w := call(r, "u1", http.MethodPost, "/api/inventory", gin.H{
		"name": "Login", "progress": 140, "type": "backend", "techStack": []string{"Go", "Go", "Redis"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.True(t, created.Success)

	w = call(r, "u1", http.MethodGet, "/api/inventory", nil)
	var items []models.FeatureItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, 100, items[0].Progress)
	assert.Equal(t, models.FeaturePlanned, items[0].Status)
	assert.Equal(t, models.FeaturePriorityMedium, items[0].Priority)
	assert.Equal(t, models.StringArray{"Go", "Redis"}, items[0].TechStack)

	w = call(r, "u1", http.MethodPut, "/api/inventory/"+created.ID, gin.H{"status": "completed", "progress": 100})
	require.Equal(t, http.StatusOK, w.Code)

	w = call(r, "u1", http.MethodPut, "/api/inventory/"+created.ID, gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, "u2", http.MethodDelete, "/api/inventory/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Item not found or unauthorized")

	w = call(r, "u2", http.MethodGet, "/api/inventory", nil)
	assert.JSONEq(t, "[]", w.Body.String())

	w = call(r, "u1", http.MethodDelete, "/api/inventory/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInventoryRequiresName(t *testing.T) {
	r := newEngine()
	w := call(r, "u1", http.MethodPost, "/api/inventory", gin.H{"name": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
