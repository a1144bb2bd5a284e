// Package migrate imports exports from the previous deployment and moves
// data between accounts.
package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"github.com/smartwork/assistant/internal/pkg/response"
	"github.com/smartwork/assistant/internal/store"
	"go.uber.org/zap"
)

type ImportResult struct {
	Notes    int  `json:"notes"`
	Features int  `json:"features"`
	Settings bool `json:"settings"`
}

type TransferResult struct {
	Notes    int64 `json:"notes"`
	Features int64 `json:"features"`
	Settings bool  `json:"settings"`
}

type Service struct {
	store store.Store
	log   *zap.Logger
}

func NewService(st store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, log: log}
}

// Import upserts every record of p into userID's data, keyed by legacy id.
func (s *Service) Import(ctx context.Context, userID string, p Payload) (ImportResult, error) {
	var res ImportResult
	if userID == "" {
		return res, apperr.Validation("User ID is required")
	}
	subMenus, err := ParseSettings(p.UserSettings)
	if err != nil {
		return res, apperr.Validation(err.Error())
	}

	notes := make([]models.Note, 0, len(p.HistoryItems))
	for _, item := range p.HistoryItems {
		notes = append(notes, item.Model(userID))
	}
	if len(notes) > 0 {
		if res.Notes, err = s.store.UpsertNotes(ctx, userID, notes); err != nil {
			return res, apperr.Upstream(err)
		}
	}

	features := make([]models.FeatureItem, 0, len(p.Features))
	for _, item := range p.Features {
		features = append(features, item.Model(userID))
	}
	if len(features) > 0 {
		if res.Features, err = s.store.UpsertFeatures(ctx, userID, features); err != nil {
			return res, apperr.Upstream(err)
		}
	}

	if subMenus != nil {
		if err := s.store.PutUserSettings(ctx, userID, subMenus); err != nil {
			return res, apperr.Upstream(err)
		}
		res.Settings = true
	}

	s.log.Info("legacy import",
		zap.String("user", userID),
		zap.Int("notes", res.Notes),
		zap.Int("features", res.Features),
		zap.Bool("settings", res.Settings),
	)
	return res, nil
}

// Transfer reassigns every note, feature and the settings of from to to.
func (s *Service) Transfer(ctx context.Context, from, to string) (TransferResult, error) {
	var res TransferResult
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return res, apperr.Validation("fromUserId and toUserId are required")
	}
	if from == to {
		return res, apperr.Validation("fromUserId and toUserId must differ")
	}

	var err error
	if res.Notes, err = s.store.ReassignNotes(ctx, from, to); err != nil {
		return res, apperr.Upstream(err)
	}
	if res.Features, err = s.store.ReassignFeatures(ctx, from, to); err != nil {
		return res, apperr.Upstream(err)
	}
	if res.Settings, err = s.store.ReassignSettings(ctx, from, to); err != nil {
		return res, apperr.Upstream(err)
	}
	s.log.Info("user transfer",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int64("notes", res.Notes),
		zap.Int64("features", res.Features),
		zap.Bool("settings", res.Settings),
	)
	return res, nil
}

type TransferDTO struct {
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the import for any session and the transfer behind
// adminMW.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	g := rg.Group("/admin", authMW)
	g.POST("/migrate", h.migrate)
	g.POST("/transfer", adminMW, h.transfer)
}

func (h *Handler) migrate(c *gin.Context) {
	var p Payload
	if err := c.ShouldBindJSON(&p); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Import(c.Request.Context(), middleware.CurrentUserID(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"result":  res,
		"message": fmt.Sprintf("Migrated %d history items, %d features, and settings.", res.Notes, res.Features),
	})
}

func (h *Handler) transfer(c *gin.Context) {
	var dto TransferDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Transfer(c.Request.Context(), dto.FromUserID, dto.ToUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"result": res})
}
