package history

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/response"
	"github.com/smartwork/assistant/internal/store"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/history", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/export", h.export)
	g.POST("/check-duplicate", h.checkDuplicate)
	g.POST("/classify", h.classify)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/status", h.advanceStatus)
	g.POST("/:id/priority", h.togglePriority)
	g.POST("/:id/comments", h.addComment)
	g.PUT("/:id/comments", h.updateComment)
	g.DELETE("/:id/comments", h.deleteComment)
}

// sessionUser returns the session user, rejecting a userId parameter that
// names someone else.
func sessionUser(c *gin.Context, claimed string) (string, bool) {
	uid := middleware.CurrentUserID(c)
	if claimed != "" && claimed != uid {
		response.ForbiddenMsg(c, "userId does not match the session")
		return "", false
	}
	return uid, true
}

func noteQuery(c *gin.Context, userID string) store.NoteQuery {
	q := store.NoteQuery{
		UserID:   userID,
		Status:   models.NoteStatus(c.Query("status")),
		Category: c.Query("menuId"),
		Label:    c.Query("label"),
		SubTag:   c.Query("subMenuId"),
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	return q
}

func (h *Handler) list(c *gin.Context) {
	uid, ok := sessionUser(c, c.Query("userId"))
	if !ok {
		return
	}
	notes, err := h.svc.List(c.Request.Context(), noteQuery(c, uid))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, notes)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateNoteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	uid, ok := sessionUser(c, dto.UserID)
	if !ok {
		return
	}
	checkDup := c.Query("checkDuplicate") == "true"

	note, err := h.svc.Create(c.Request.Context(), uid, dto, checkDup)
	if err != nil {
		var dupErr *DuplicateError
		if errors.As(err, &dupErr) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success":     false,
				"code":        http.StatusConflict,
				"error":       dupErr.Error(),
				"isDuplicate": true,
				"duplicates":  dupErr.Duplicates,
			})
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, noteFields(note))
}

// noteFields flattens a note into a map so it can be merged into an
// envelope.
func noteFields(n *models.Note) gin.H {
	out := gin.H{}
	raw, err := json.Marshal(n)
	if err == nil {
		_ = json.Unmarshal(raw, &out)
	}
	out["id"] = n.ID
	return out
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateNoteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	patch, err := dto.Patch()
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.svc.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), patch); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Item updated"})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Item deleted"})
}

func (h *Handler) advanceStatus(c *gin.Context) {
	note, err := h.svc.AdvanceStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, noteFields(note))
}

func (h *Handler) togglePriority(c *gin.Context) {
	note, err := h.svc.TogglePriority(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, noteFields(note))
}

func (h *Handler) checkDuplicate(c *gin.Context) {
	var dto ContentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	dups, err := h.svc.CheckDuplicate(c.Request.Context(), middleware.CurrentUserID(c), dto.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"isDuplicate": len(dups) > 0, "duplicates": dups})
}

func (h *Handler) classify(c *gin.Context) {
	var dto ClassifyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.svc.Classify(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"labels": res.Labels, "subMenuId": res.SubTag})
}

func (h *Handler) addComment(c *gin.Context) {
	var dto ContentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, comment)
}

func (h *Handler) updateComment(c *gin.Context) {
	var dto CommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.svc.UpdateComment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"commentId": dto.CommentID, "content": dto.Content})
}

func (h *Handler) deleteComment(c *gin.Context) {
	commentID := c.Query("commentId")
	if err := h.svc.DeleteComment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), commentID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"commentId": commentID})
}

func (h *Handler) export(c *gin.Context) {
	uid := middleware.CurrentUserID(c)
	format := c.DefaultQuery("format", FormatMarkdown)
	out, err := h.svc.Export(c.Request.Context(), noteQuery(c, uid), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := "text/markdown; charset=utf-8"
	if format == FormatHTML {
		contentType = "text/html; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, []byte(out))
}
