package history

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *memstore.Store
	engine *gin.Engine
}

// asUser stands in for the session middleware.
func asUser(c *gin.Context) {
	uid := c.GetHeader("X-Test-User")
	if uid == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Set(middleware.ContextKeyUserID, uid)
	c.Next()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	st := memstore.New().WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	svc := NewService(st, nil, nil)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api"), asUser)
	return &fixture{store: st, engine: r}
}

func (f *fixture) do(t *testing.T, user, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (f *fixture) create(t *testing.T, user string, body gin.H) string {
	t.Helper()
	w := f.do(t, user, http.MethodPost, "/api/history", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out map[string]interface{}
	decode(t, w, &out)
	return out["id"].(string)
}

func TestCreateClassifiesWithSettings(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.PutUserSettings(context.Background(), "u1",
		models.CategoryKeywords{"dev": {"React", "API"}}))

	w := f.do(t, "u1", http.MethodPost, "/api/history", gin.H{
		"menuId":  "dev",
		"content": "React 컴포넌트에서 API 호출 시 에러 발생",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out map[string]interface{}
	decode(t, w, &out)
	assert.Equal(t, true, out["success"])
	assert.NotEmpty(t, out["id"])
	assert.Equal(t, "pending", out["status"])
	assert.Equal(t, "normal", out["priority"])
	assert.Equal(t, "React", out["subMenuId"])
	assert.ElementsMatch(t, []interface{}{"React", "API", "issue"}, out["labels"])
}

func TestCreateRequiresContent(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "u1", http.MethodPost, "/api/history", gin.H{"menuId": "dev", "content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRejectsForeignUserID(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "u1", http.MethodPost, "/api/history", gin.H{"userId": "u2", "content": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, "u1", http.MethodGet, "/api/history?userId=u2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMissingSession(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "", http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateWithDuplicateCheck(t *testing.T) {
	f := newFixture(t)
	f.create(t, "u1", gin.H{"menuId": "work", "content": "주간 보고서 작성  완료"})

	w := f.do(t, "u1", http.MethodPost, "/api/history?checkDuplicate=true", gin.H{
		"menuId": "work", "content": "주간 보고서 작성 완료",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	var out map[string]interface{}
	decode(t, w, &out)
	assert.Equal(t, true, out["isDuplicate"])
	assert.Len(t, out["duplicates"], 1)

	w = f.do(t, "u1", http.MethodPost, "/api/history?checkDuplicate=true", gin.H{
		"menuId": "work", "content": "주간 보고서 작성 완료", "confirm": true,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Another user's identical note is not a duplicate.
	w = f.do(t, "u2", http.MethodPost, "/api/history?checkDuplicate=true", gin.H{
		"menuId": "work", "content": "주간 보고서 작성 완료",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckDuplicateEndpoint(t *testing.T) {
	f := newFixture(t)
	f.create(t, "u1", gin.H{"content": "Deploy the payment service to staging today"})

	w := f.do(t, "u1", http.MethodPost, "/api/history/check-duplicate", gin.H{"content": "  DEPLOY the payment service to staging today "})
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		IsDuplicate bool          `json:"isDuplicate"`
		Duplicates  []models.Note `json:"duplicates"`
	}
	decode(t, w, &out)
	assert.True(t, out.IsDuplicate)
	require.Len(t, out.Duplicates, 1)

	w = f.do(t, "u1", http.MethodPost, "/api/history/check-duplicate", gin.H{"content": ""})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &out)
	assert.False(t, out.IsDuplicate)
	assert.Empty(t, out.Duplicates)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	f.create(t, "u1", gin.H{"menuId": "dev", "content": "버그 수정"})
	second := f.create(t, "u1", gin.H{"menuId": "meeting", "content": "회의록 정리", "status": "completed"})
	f.create(t, "u2", gin.H{"menuId": "dev", "content": "other user"})

	var notes []models.Note
	w := f.do(t, "u1", http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &notes)
	require.Len(t, notes, 2)
	assert.Equal(t, second, notes[0].ID, "newest first")

	w = f.do(t, "u1", http.MethodGet, "/api/history?status=completed", nil)
	decode(t, w, &notes)
	require.Len(t, notes, 1)
	assert.NotNil(t, notes[0].CompletedAt)

	w = f.do(t, "u1", http.MethodGet, "/api/history?status=all&menuId=dev", nil)
	decode(t, w, &notes)
	require.Len(t, notes, 1)

	w = f.do(t, "u1", http.MethodGet, "/api/history?label=issue", nil)
	decode(t, w, &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, "버그 수정", notes[0].Content)
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "u1", gin.H{"menuId": "dev", "content": "draft"})

	w := f.do(t, "u1", http.MethodPut, "/api/history/"+id, gin.H{
		"_id": "ignored", "userId": "u2", "status": "completed", "content": "final",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Item updated")

	n, err := f.store.GetNote(context.Background(), "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "final", n.Content)
	assert.Equal(t, "u1", n.UserID)
	require.NotNil(t, n.CompletedAt)

	w = f.do(t, "u1", http.MethodPut, "/api/history/"+id, gin.H{"status": "pending"})
	require.Equal(t, http.StatusOK, w.Code)
	n, _ = f.store.GetNote(context.Background(), "u1", id)
	assert.Nil(t, n.CompletedAt)

	w = f.do(t, "u1", http.MethodPut, "/api/history/"+id, gin.H{"status": "done"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "u2", http.MethodPut, "/api/history/"+id, gin.H{"content": "hijack"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "u1", http.MethodDelete, "/api/history/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Item deleted")

	w = f.do(t, "u1", http.MethodPut, "/api/history/"+id, gin.H{"content": "again"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Item not found")
}

func TestUpdateClearsSubTag(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.PutUserSettings(context.Background(), "u1", models.CategoryKeywords{"dev": {"Go"}}))
	id := f.create(t, "u1", gin.H{"menuId": "dev", "content": "Go 서비스"})

	w := f.do(t, "u1", http.MethodPut, "/api/history/"+id, gin.H{"subMenuId": nil})
	require.Equal(t, http.StatusOK, w.Code)
	n, err := f.store.GetNote(context.Background(), "u1", id)
	require.NoError(t, err)
	assert.Nil(t, n.SubTag)
}

func TestStatusCycleAndPriority(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "u1", gin.H{"content": "cycle"})

	want := []string{"in-progress", "completed", "pending"}
	for _, status := range want {
		w := f.do(t, "u1", http.MethodPost, "/api/history/"+id+"/status", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out map[string]interface{}
		decode(t, w, &out)
		assert.Equal(t, status, out["status"])
	}

	w := f.do(t, "u1", http.MethodPost, "/api/history/"+id+"/priority", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"priority":"high"`)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "u1", gin.H{"content": "with comments"})

	w := f.do(t, "u1", http.MethodPost, "/api/history/"+id+"/comments", gin.H{"content": "first"})
	require.Equal(t, http.StatusOK, w.Code)
	var comment models.Comment
	decode(t, w, &comment)
	require.NotEmpty(t, comment.ID)

	w = f.do(t, "u1", http.MethodPost, "/api/history/"+id+"/comments", gin.H{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "u1", http.MethodPut, "/api/history/"+id+"/comments", gin.H{"commentId": comment.ID, "content": "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"content":"edited"`)

	w = f.do(t, "u1", http.MethodPut, "/api/history/"+id+"/comments", gin.H{"content": "no id"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "commentId and content are required")

	w = f.do(t, "u1", http.MethodPut, "/api/history/"+id+"/comments", gin.H{"commentId": "missing", "content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "u1", http.MethodDelete, "/api/history/"+id+"/comments?commentId="+comment.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), comment.ID)

	n, err := f.store.GetNote(context.Background(), "u1", id)
	require.NoError(t, err)
	assert.Empty(t, n.Comments)
}

func TestClassifyPreview(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.PutUserSettings(context.Background(), "u1", models.CategoryKeywords{"dev": {"API", "React"}}))

	w := f.do(t, "u1", http.MethodPost, "/api/history/classify", gin.H{"menuId": "dev", "content": "React 와 API 연동 아이디어"})
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Labels    []string `json:"labels"`
		SubMenuID *string  `json:"subMenuId"`
	}
	decode(t, w, &out)
	require.NotNil(t, out.SubMenuID)
	assert.Equal(t, "API", *out.SubMenuID)
	assert.Contains(t, out.Labels, "idea")
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	f.create(t, "u1", gin.H{"menuId": "dev", "menuName": "개발", "content": "API 설계", "priority": "high"})

	w := f.do(t, "u1", http.MethodGet, "/api/history/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown"))
	assert.Contains(t, w.Body.String(), "## 개발")
	assert.Contains(t, w.Body.String(), "- [ ] API 설계 **(high)**")

	w = f.do(t, "u1", http.MethodGet, "/api/history/export?format=html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h2>개발</h2>")

	w = f.do(t, "u1", http.MethodGet, "/api/history/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
