package ai

import (
	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/ai/summary", authMW, h.summary)
	rg.POST("/summarize", authMW, h.summarize)
	rg.POST("/analyze-intent", authMW, h.analyzeIntent)
	rg.POST("/architecture", authMW, h.architecture)
}

// POST /ai/summary
func (h *Handler) summary(c *gin.Context) {
	var dto SummaryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Summary(c.Request.Context(), dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// POST /summarize
func (h *Handler) summarize(c *gin.Context) {
	var dto ContentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	summary, err := h.svc.Summarize(c.Request.Context(), dto.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"summary": summary})
}

// POST /analyze-intent
func (h *Handler) analyzeIntent(c *gin.Context) {
	var dto ContentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	intent, err := h.svc.AnalyzeIntent(c.Request.Context(), dto.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, intent)
}

// POST /architecture
func (h *Handler) architecture(c *gin.Context) {
	var dto ArchitectureDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "Invalid features data")
		return
	}
	code, err := h.svc.Architecture(c.Request.Context(), dto.Features)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"mermaidCode": code})
}
