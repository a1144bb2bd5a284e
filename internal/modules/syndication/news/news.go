// Package news serves a few Google News KR headlines per category.
package news

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/pkg/cache"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://news.google.com"
	localeQuery    = "hl=ko&gl=KR&ceid=KR:ko"
	maxItems       = 5
	cacheTTL       = time.Hour
	sourceName     = "Google News"
	sportsQuery    = "야구 OR 농구"
)

var topics = map[string]string{
	"TECH":          "TECHNOLOGY",
	"BUSINESS":      "BUSINESS",
	"ENTERTAINMENT": "ENTERTAINMENT",
}

type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	PubDate string `json:"pubDate"`
	Source  string `json:"source"`
}

// FeedURL maps a category to its RSS URL. Unknown categories are searched
// for as free text.
func FeedURL(base, category string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case category == "" || category == "ALL":
		return base + "/rss?" + localeQuery
	case category == "SPORTS":
		return base + "/rss/search?q=" + url.QueryEscape(sportsQuery) + "&" + localeQuery
	case topics[category] != "":
		return base + "/rss/headlines/section/topic/" + topics[category] + "?" + localeQuery
	default:
		return base + "/rss/search?q=" + url.QueryEscape(category) + "&" + localeQuery
	}
}

type rssDocument struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			PubDate string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Parse reads at most limit items from an RSS 2.0 document.
func Parse(r io.Reader, limit int) ([]Item, error) {
	var doc rssDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}
	items := make([]Item, 0, limit)
	for _, it := range doc.Channel.Items {
		if len(items) >= limit {
			break
		}
		title := cleanTitle(it.Title)
		if title == "" {
			title = "No Title"
		}
		link := strings.TrimSpace(it.Link)
		if link == "" {
			link = "#"
		}
		items = append(items, Item{Title: title, Link: link, PubDate: strings.TrimSpace(it.PubDate), Source: sourceName})
	}
	return items, nil
}

// cleanTitle undoes the double escaping some publishers apply inside CDATA.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<![CDATA[")
	s = strings.TrimSuffix(s, "]]>")
	return strings.TrimSpace(html.UnescapeString(s))
}

type Service struct {
	base   string
	client *http.Client
	cache  cache.Cache
	log    *zap.Logger
}

func NewService(base string, c cache.Cache, log *zap.Logger) *Service {
	if base == "" {
		base = DefaultBaseURL
	}
	if c == nil {
		c = cache.NewMemory()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{base: base, client: &http.Client{Timeout: 10 * time.Second}, cache: c, log: log}
}

// Headlines returns the cached headlines for category, fetching on a miss.
func (s *Service) Headlines(ctx context.Context, category string) ([]Item, error) {
	key := "news:" + category
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var items []Item
		if json.Unmarshal(raw, &items) == nil {
			return items, nil
		}
	} else if err != nil {
		s.log.Warn("news cache read failed", zap.Error(err))
	}

	items, err := s.fetch(ctx, FeedURL(s.base, category))
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, raw, cacheTTL); err != nil {
			s.log.Warn("news cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

func (s *Service) fetch(ctx context.Context, feedURL string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("news feed returned %s", resp.Status)
	}
	return Parse(resp.Body, maxItems)
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/news", h.headlines)
}

// GET /news?category=ALL|TECH|BUSINESS|ENTERTAINMENT|SPORTS|<query>
func (h *Handler) headlines(c *gin.Context) {
	category := c.DefaultQuery("category", "ALL")
	items, err := h.svc.Headlines(c.Request.Context(), category)
	if err != nil {
		h.svc.log.Error("news fetch failed", zap.String("category", category), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"items": []Item{}, "summary": "", "error": "Failed to fetch news"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "summary": ""})
}
