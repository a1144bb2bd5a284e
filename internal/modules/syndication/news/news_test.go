package news

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Google News</title>
<item><title><![CDATA[반도체 &quot;호황&quot; 계속 - 한국경제]]></title><link>https://news.example.com/1</link><pubDate>Mon, 02 Mar 2026 01:00:00 GMT</pubDate></item>
<item><title>R&amp;D 투자 확대</title><link>https://news.example.com/2</link><pubDate>Mon, 02 Mar 2026 02:00:00 GMT</pubDate></item>
<item><title></title><link></link></item>
<item><title>4</title><link>https://news.example.com/4</link></item>
<item><title>5</title><link>https://news.example.com/5</link></item>
<item><title>6</title><link>https://news.example.com/6</link></item>
</channel></rss>`

func TestFeedURL(t *testing.T) {
	base := "https://news.google.com"
	assert.Equal(t, base+"/rss?hl=ko&gl=KR&ceid=KR:ko", FeedURL(base, "ALL"))
	assert.Equal(t, base+"/rss/headlines/section/topic/TECHNOLOGY?hl=ko&gl=KR&ceid=KR:ko", FeedURL(base, "TECH"))
	assert.Contains(t, FeedURL(base, "SPORTS"), "/rss/search?q=%EC%95%BC%EA%B5%AC+OR+%EB%86%8D%EA%B5%AC&")
	assert.Equal(t, base+"/rss/search?q=golang&hl=ko&gl=KR&ceid=KR:ko", FeedURL(base, "golang"))
}

func TestParseCleansTitlesAndLimits(t *testing.T) {
	items, err := Parse(strings.NewReader(sampleFeed), 5)
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, `반도체 "호황" 계속 - 한국경제`, items[0].Title)
	assert.Equal(t, "Google News", items[0].Source)
	assert.Equal(t, "Mon, 02 Mar 2026 01:00:00 GMT", items[0].PubDate)
	assert.Equal(t, "R&D 투자 확대", items[1].Title)
	assert.Equal(t, "No Title", items[2].Title)
	assert.Equal(t, "#", items[2].Link)
}

func newServer(t *testing.T, status int) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func newEngine(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api"))
	return r
}

func TestHeadlinesAreCachedPerCategory(t *testing.T) {
	srv, hits := newServer(t, http.StatusOK)
	r := newEngine(NewService(srv.URL, cache.NewMemory(), nil))

	w := get(r, "/api/news?category=TECH")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Items   []Item `json:"items"`
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Items, 5)
	assert.Equal(t, "", body.Summary)

	get(r, "/api/news?category=TECH")
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	get(r, "/api/news")
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
}

func TestHeadlinesFetchFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadGateway)
	r := newEngine(NewService(srv.URL, cache.NewMemory(), nil))

	w := get(r, "/api/news")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"items":[],"summary":"","error":"Failed to fetch news"}`, w.Body.String())
}
