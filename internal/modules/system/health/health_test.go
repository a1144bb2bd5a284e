package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	w := serve(NewHandler(pinger{}, pinger{}, t.TempDir()), "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"redis":true`)

	w = serve(NewHandler(pinger{err: errors.New("down")}, nil, t.TempDir()), "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "redis")
}

func TestPing(t *testing.T) {
	w := serve(NewHandler(pinger{}, nil, ""), "/api/ping")
	assert.Equal(t, "pong", w.Body.String())
}

func TestLogs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stdout_3-1-25.log"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	h := NewHandler(pinger{}, nil, dir)

	w := serve(h, "/api/health/log")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stdout_3-1-25.log")
	assert.NotContains(t, w.Body.String(), "notes.txt")

	w = serve(h, "/api/health/log/stdout_3-1-25.log")
	assert.Equal(t, "hello", w.Body.String())

	w = serve(h, "/api/health/log/missing.log")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFormatByteSize(t *testing.T) {
	assert.Equal(t, "512 B", formatByteSize(512))
	assert.Equal(t, "1.5 KiB", formatByteSize(1536))
	assert.Equal(t, "2.0 MiB", formatByteSize(2*1024*1024))
}
