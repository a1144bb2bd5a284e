// Package file accepts note attachments and serves them back by id.
package file

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"github.com/smartwork/assistant/internal/pkg/blob"
	"github.com/smartwork/assistant/internal/pkg/response"
	"github.com/smartwork/assistant/internal/store"
	"go.uber.org/zap"
)

const immutableCache = "public, max-age=31536000, immutable"

// Service pairs the blob backend with upload metadata.
type Service struct {
	blobs   blob.Store
	uploads store.UploadStore
	log     *zap.Logger
}

func NewService(blobs blob.Store, uploads store.UploadStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{blobs: blobs, uploads: uploads, log: log}
}

// Save stores one attachment for userID and returns its metadata.
func (s *Service) Save(ctx context.Context, userID string, fh *multipart.FileHeader) (*models.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	up := &models.Upload{
		ID:          models.NewID(),
		UserID:      userID,
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
	}
	up.StorageKey = up.ID
	if err := s.blobs.Put(ctx, up.StorageKey, contentType, f, fh.Size); err != nil {
		return nil, apperr.Upstream(err)
	}
	if err := s.uploads.CreateUpload(ctx, up); err != nil {
		if derr := s.blobs.Delete(ctx, up.StorageKey); derr != nil {
			s.log.Warn("orphaned upload blob", zap.String("key", up.StorageKey), zap.Error(derr))
		}
		return nil, apperr.Upstream(err)
	}
	return up, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/upload", authMW, h.upload)
	rg.GET("/file/:id", h.get)
}

// POST /upload (multipart, repeatable "file")
func (h *Handler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["file"]) == 0 {
		response.BadRequest(c, "No files found")
		return
	}
	userID := middleware.CurrentUserID(c)
	urls := make([]string, 0, len(form.File["file"]))
	for _, fh := range form.File["file"] {
		up, err := h.svc.Save(c.Request.Context(), userID, fh)
		if err != nil {
			response.Error(c, err)
			return
		}
		urls = append(urls, up.URL())
	}
	response.OK(c, gin.H{"urls": urls})
}

// GET /file/:id
func (h *Handler) get(c *gin.Context) {
	ctx := c.Request.Context()
	up, err := h.svc.uploads.GetUpload(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.String(http.StatusNotFound, "File not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	rc, err := h.svc.blobs.Open(ctx, up.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			c.String(http.StatusNotFound, "File not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, up.Size, up.ContentType, rc, map[string]string{
		"Cache-Control": immutableCache,
	})
}
