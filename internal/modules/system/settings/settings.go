// Package settings serves the per-user keyword configuration and the
// category menu derived from it.
package settings

import (
	"context"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"github.com/smartwork/assistant/internal/pkg/response"
	"github.com/smartwork/assistant/internal/store"
)

// Menu is a note category shown in the client's sidebar.
type Menu struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BuiltIn bool   `json:"builtIn"`
}

// BuiltInMenus are available to every user.
var BuiltInMenus = []Menu{
	{ID: "work", Name: "업무", BuiltIn: true},
	{ID: "dev", Name: "개발", BuiltIn: true},
	{ID: "meeting", Name: "회의", BuiltIn: true},
	{ID: "issue", Name: "이슈", BuiltIn: true},
	{ID: "idea", Name: "아이디어", BuiltIn: true},
}

type PutSettingsDTO struct {
	SubMenus models.CategoryKeywords `json:"subMenus"`
}

type PutKeywordsDTO struct {
	Keywords []string `json:"keywords"`
}

type Service struct{ store store.SettingsStore }

func NewService(st store.SettingsStore) *Service { return &Service{store: st} }

func (s *Service) Get(ctx context.Context, userID string) (models.CategoryKeywords, error) {
	st, err := s.store.GetUserSettings(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	if st.SubMenus == nil {
		return models.CategoryKeywords{}, nil
	}
	return st.SubMenus, nil
}

// Replace stores subMenus as the user's full configuration.
func (s *Service) Replace(ctx context.Context, userID string, subMenus models.CategoryKeywords) error {
	if subMenus == nil {
		return apperr.Validation("subMenus is required")
	}
	if err := s.store.PutUserSettings(ctx, userID, subMenus.Normalize()); err != nil {
		return apperr.Upstream(err)
	}
	return nil
}

// ReplaceCategory swaps one category's keyword list and keeps the rest.
func (s *Service) ReplaceCategory(ctx context.Context, userID, category string, keywords []string) (models.CategoryKeywords, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.Validation("menuId is required")
	}
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	next[category] = models.NormalizeKeywords(keywords)
	if err := s.store.PutUserSettings(ctx, userID, next); err != nil {
		return nil, apperr.Upstream(err)
	}
	return next, nil
}

// Menus returns the built-in categories followed by any extra category ids
// present in the user's settings, sorted.
func (s *Service) Menus(ctx context.Context, userID string) ([]Menu, error) {
	subMenus, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := append([]Menu(nil), BuiltInMenus...)
	known := make(map[string]struct{}, len(out))
	for _, m := range out {
		known[m.ID] = struct{}{}
	}
	var extra []string
	for id := range subMenus {
		if _, ok := known[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		out = append(out, Menu{ID: id, Name: id})
	}
	return out, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/settings", authMW)
	g.GET("", h.get)
	g.POST("", h.replace)
	g.PUT("/:menuId", h.replaceCategory)

	rg.GET("/menus", authMW, h.menus)
}

func (h *Handler) get(c *gin.Context) {
	subMenus, err := h.svc.Get(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subMenus)
}

func (h *Handler) replace(c *gin.Context) {
	var dto PutSettingsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.Replace(c.Request.Context(), middleware.CurrentUserID(c), dto.SubMenus); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) replaceCategory(c *gin.Context) {
	var dto PutKeywordsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	subMenus, err := h.svc.ReplaceCategory(c.Request.Context(), middleware.CurrentUserID(c), c.Param("menuId"), dto.Keywords)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"subMenus": subMenus})
}

func (h *Handler) menus(c *gin.Context) {
	menus, err := h.svc.Menus(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, menus)
}
