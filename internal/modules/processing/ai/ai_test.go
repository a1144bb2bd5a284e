package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appcfg "github.com/smartwork/assistant/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply    string
	err      error
	requests []Request
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

type factoryLog struct {
	keys []string
	gen  *fakeGenerator
}

func (l *factoryLog) factory(_ context.Context, apiKey string) (Generator, error) {
	l.keys = append(l.keys, apiKey)
	return l.gen, nil
}

func newService(reply string) (*Service, *factoryLog) {
	log := &factoryLog{gen: &fakeGenerator{reply: reply}}
	svc := NewServiceWith(log.factory, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 0, 30, 0, 0, time.UTC) }
	return svc, log
}

func newEngine(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api"), func(c *gin.Context) { c.Next() })
	return r
}

func post(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGeneralSummaryHasNoScheduleField(t *testing.T) {
	svc, _ := newService("  회의 내용 정리함  ")
	w := post(newEngine(svc), "/api/ai/summary", gin.H{"text": "긴 회의록"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"summary":"회의 내용 정리함"}`, w.Body.String())
}

func TestScheduleSummaryParsesFencedJSON(t *testing.T) {
	svc, log := newService("```json\n{\"summary\":\"팀 회의\",\"schedule\":{\"title\":\"팀 회의\",\"start\":\"2026-03-03T10:00:00\",\"end\":\"2026-03-03T11:00:00\",\"location\":null}}\n```")
	w := post(newEngine(svc), "/api/ai/summary", gin.H{"text": "내일 10시 팀 회의", "type": "schedule"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Summary  string    `json:"summary"`
		Schedule *Schedule `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Schedule)
	assert.Equal(t, "2026-03-03T10:00:00", body.Schedule.Start)
	assert.Nil(t, body.Schedule.Location)

	prompt := log.gen.requests[0].Prompt
	assert.Contains(t, prompt, "2026-03-02 (월요일)")
	assert.Contains(t, prompt, "09:30:00")
}

func TestScheduleSummaryFallsBackToRawText(t *testing.T) {
	svc, _ := newService("일정 정보를 찾을 수 없음")
	w := post(newEngine(svc), "/api/ai/summary", gin.H{"text": "그냥 메모", "type": "schedule"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"일정 정보를 찾을 수 없음","schedule":null}`, w.Body.String())
}

func TestRequestAPIKeyOverridesConfiguredKey(t *testing.T) {
	svc, log := newService("ok")
	r := newEngine(svc)

	post(r, "/api/ai/summary", gin.H{"text": "a"})
	post(r, "/api/ai/summary", gin.H{"text": "b"})
	post(r, "/api/ai/summary", gin.H{"text": "c", "apiKey": "user-key"})

	assert.Equal(t, []string{"", "user-key"}, log.keys)
}

func TestValidationErrors(t *testing.T) {
	svc, _ := newService("x")
	r := newEngine(svc)

	assert.Equal(t, http.StatusBadRequest, post(r, "/api/ai/summary", gin.H{"text": ""}).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/api/summarize", gin.H{}).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/api/analyze-intent", gin.H{"content": " "}).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/api/architecture", gin.H{}).Code)
}

func TestUpstreamErrorMessagePassesThrough(t *testing.T) {
	svc, log := newService("")
	log.gen.err = errors.New("quota exceeded")
	w := post(newEngine(svc), "/api/summarize", gin.H{"content": "업무"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "quota exceeded")
}

func TestSummarizeUsesWorkPrompt(t *testing.T) {
	svc, log := newService("요약")
	w := post(newEngine(svc), "/api/summarize", gin.H{"content": "배포 일정 조율"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"요약"}`, w.Body.String())
	req := log.gen.requests[0]
	assert.Contains(t, req.Prompt, "배포 일정 조율")
	assert.Equal(t, 500, req.MaxTokens)
}

func TestAnalyzeIntent(t *testing.T) {
	svc, log := newService(`{"isSchedule":true,"summary":"마케팅 회의","startDateTime":"2026-03-03T14:00:00","endDateTime":"2026-03-03T15:00:00","description":"","location":null}`)
	w := post(newEngine(svc), "/api/analyze-intent", gin.H{"content": "내일 2시 마케팅 회의"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var intent Intent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &intent))
	assert.True(t, intent.IsSchedule)
	require.NotNil(t, intent.StartDateTime)
	assert.Equal(t, "2026-03-03T14:00:00", *intent.StartDateTime)
	assert.True(t, log.gen.requests[0].JSON)
}

func TestArchitectureStripsMermaidFence(t *testing.T) {
	svc, log := newService("```mermaid\ngraph TD\n  A --> B\n```")
	w := post(newEngine(svc), "/api/architecture", gin.H{"features": []gin.H{{"name": "Login", "type": "backend"}}})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"mermaidCode":"graph TD\n  A --> B"}`, w.Body.String())
	assert.Contains(t, log.gen.requests[0].Prompt, `"name": "Login"`)
}

func TestUnmarshalAIJSON(t *testing.T) {
	var out struct {
		Summary string `json:"summary"`
	}
	require.NoError(t, unmarshalAIJSON(`{"summary":"a"}`, &out))
	assert.Equal(t, "a", out.Summary)

	require.NoError(t, unmarshalAIJSON("Here you go:\n{\"summary\":\"b\"} hope it helps", &out))
	assert.Equal(t, "b", out.Summary)

	assert.Error(t, unmarshalAIJSON("no json here", &out))
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	_, err := NewGenerator(context.Background(), appcfg.AIConfig{Provider: appcfg.ProviderGemini}, "")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewGenerator(context.Background(), appcfg.AIConfig{Provider: appcfg.ProviderAnthropic}, "")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	g, err := NewGenerator(context.Background(), appcfg.AIConfig{Provider: appcfg.ProviderOpenAI}, "sk-test")
	require.NoError(t, err)
	assert.IsType(t, &jetifyGenerator{}, g)
}

func TestCompatGenerator(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-local", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	cfg := appcfg.AIConfig{Provider: appcfg.ProviderOpenAICompatible, OpenAIBaseURL: srv.URL + "/v1", Model: "local-model"}
	g, err := NewGenerator(context.Background(), cfg, "sk-local")
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), Request{System: "sys", Prompt: "hi", MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "local-model", got["model"])
	assert.Len(t, got["messages"], 2)
}
