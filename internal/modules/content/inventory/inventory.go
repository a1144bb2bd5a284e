// Package inventory manages the per-user list of project features.
package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"github.com/smartwork/assistant/internal/pkg/response"
	"github.com/smartwork/assistant/internal/store"
)

const notFoundMsg = "Item not found or unauthorized"

type CreateFeatureDTO struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Status             string   `json:"status"`
	Progress           int      `json:"progress"`
	Type               string   `json:"type"`
	Priority           string   `json:"priority"`
	TechStack          []string `json:"techStack"`
	RelatedDocumentIDs []string `json:"relatedDocumentIds"`
}

type UpdateFeatureDTO struct {
	Name               *string   `json:"name"`
	Description        *string   `json:"description"`
	Status             *string   `json:"status"`
	Progress           *int      `json:"progress"`
	Type               *string   `json:"type"`
	Priority           *string   `json:"priority"`
	TechStack          *[]string `json:"techStack"`
	RelatedDocumentIDs *[]string `json:"relatedDocumentIds"`
}

func (d UpdateFeatureDTO) validate() error {
	if d.Name != nil && strings.TrimSpace(*d.Name) == "" {
		return apperr.Validation("name is required")
	}
	if d.Status != nil && !models.FeatureStatus(*d.Status).Valid() {
		return apperr.Validationf("invalid status %q", *d.Status)
	}
	if d.Type != nil && !models.FeatureType(*d.Type).Valid() {
		return apperr.Validationf("invalid type %q", *d.Type)
	}
	if d.Priority != nil && !models.FeaturePriority(*d.Priority).Valid() {
		return apperr.Validationf("invalid priority %q", *d.Priority)
	}
	return nil
}

func (d UpdateFeatureDTO) apply(f *models.FeatureItem) {
	if d.Name != nil {
		f.Name = strings.TrimSpace(*d.Name)
	}
	if d.Description != nil {
		f.Description = *d.Description
	}
	if d.Status != nil {
		f.Status = models.FeatureStatus(*d.Status)
	}
	if d.Progress != nil {
		f.Progress = *d.Progress
	}
	if d.Type != nil {
		f.Type = models.FeatureType(*d.Type)
	}
	if d.Priority != nil {
		f.Priority = models.FeaturePriority(*d.Priority)
	}
	if d.TechStack != nil {
		f.TechStack = models.StringArray(*d.TechStack).Union()
	}
	if d.RelatedDocumentIDs != nil {
		f.RelatedDocumentIDs = models.StringArray(*d.RelatedDocumentIDs).Union()
	}
	f.Normalize()
}

type Service struct {
	store store.FeatureStore
	now   func() time.Time
}

func NewService(st store.FeatureStore) *Service { return &Service{store: st, now: time.Now} }

func (s *Service) List(ctx context.Context, userID string) ([]models.FeatureItem, error) {
	items, err := s.store.ListFeatures(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, userID string, dto CreateFeatureDTO) (*models.FeatureItem, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	item := &models.FeatureItem{
		Base:               models.Base{UserID: userID},
		Name:               name,
		Description:        dto.Description,
		Status:             models.FeatureStatus(dto.Status),
		Progress:           dto.Progress,
		Type:               models.FeatureType(dto.Type),
		Priority:           models.FeaturePriority(dto.Priority),
		TechStack:          models.StringArray(dto.TechStack).Union(),
		RelatedDocumentIDs: models.StringArray(dto.RelatedDocumentIDs).Union(),
	}
	item.Normalize()
	item.Touch(s.now())
	if _, err := s.store.CreateFeature(ctx, item); err != nil {
		return nil, apperr.Upstream(err)
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, dto UpdateFeatureDTO) (*models.FeatureItem, error) {
	if err := dto.validate(); err != nil {
		return nil, err
	}
	item, err := s.store.UpdateFeature(ctx, userID, id, dto.apply)
	if err != nil {
		return nil, wrap(err)
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return wrap(s.store.DeleteFeature(ctx, userID, id))
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(notFoundMsg)
	}
	return apperr.Upstream(err)
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/inventory", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateFeatureDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	item, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": item.ID})
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateFeatureDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if _, err := h.svc.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
