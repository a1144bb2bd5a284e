// Package health reports liveness and lets admins browse the daily log
// files.
package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/pkg/response"
)

// Pinger is anything with a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type logItem struct {
	Size     string `json:"size"`
	Filename string `json:"filename"`
	Created  int64  `json:"created"`
}

type Handler struct {
	store   Pinger
	redis   Pinger
	logDir  string
	started time.Time
}

// NewHandler builds the handler. redis may be nil when no cache is configured.
func NewHandler(store, redis Pinger, logDir string) *Handler {
	return &Handler{store: store, redis: redis, logDir: logDir, started: time.Now()}
}

// RegisterRoutes mounts the public probes on rg and the log browser behind
// adminMW.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, adminMW ...gin.HandlerFunc) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	rg.GET("/health", h.health)

	logs := rg.Group("/health/log", adminMW...)
	logs.GET("", h.listLogs)
	logs.GET("/:filename", h.readLog)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	dbOK := h.store.Ping(ctx) == nil
	body := gin.H{
		"database": dbOK,
		"uptime":   int64(time.Since(h.started).Seconds()),
	}
	if h.redis != nil {
		body["redis"] = h.redis.Ping(ctx) == nil
	}

	status, code := "ok", http.StatusOK
	if !dbOK {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	body["status"] = status
	c.JSON(code, body)
}

func (h *Handler) listLogs(c *gin.Context) {
	entries, err := os.ReadDir(h.logDir)
	if err != nil {
		if os.IsNotExist(err) {
			response.OK(c, []logItem{})
			return
		}
		response.InternalError(c, err)
		return
	}

	items := make([]logItem, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, logItem{
			Size:     formatByteSize(info.Size()),
			Filename: entry.Name(),
			Created:  info.ModTime().UnixMilli(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Created > items[j].Created })
	response.OK(c, items)
}

func (h *Handler) readLog(c *gin.Context) {
	filename := filepath.Base(strings.TrimSpace(c.Param("filename")))
	if filename == "." || filename == string(filepath.Separator) || !strings.HasSuffix(filename, ".log") {
		response.BadRequest(c, "invalid filename")
		return
	}
	data, err := os.ReadFile(filepath.Join(h.logDir, filename))
	if err != nil {
		response.NotFoundMsg(c, "log file not exists")
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

func formatByteSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
