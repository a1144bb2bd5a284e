// Package drive stores note images in the user's Google Drive.
package drive

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/pkg/googleauth"
	"github.com/smartwork/assistant/internal/pkg/response"
	"go.uber.org/zap"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	// FolderName is the Drive folder uploads land in.
	FolderName  = "SmartWorkMemo"
	folderMIME  = "application/vnd.google-apps.folder"
	viewURLBase = "https://drive.google.com/uc?export=view&id="
)

// Drive is the subset of the Drive API the upload flow drives.
type Drive interface {
	FindFolder(ctx context.Context, name string) (string, error)
	CreateFolder(ctx context.Context, name string) (string, error)
	Upload(ctx context.Context, name, mimeType, parentID string, body io.Reader) (*driveapi.File, error)
	ShareWithAnyone(ctx context.Context, fileID string) error
}

// Opener returns a Drive acting as userID.
type Opener func(ctx context.Context, userID string) (Drive, error)

func NewOpener(vault *googleauth.Vault) Opener {
	return func(ctx context.Context, userID string) (Drive, error) {
		ts, err := vault.TokenSource(ctx, userID)
		if err != nil {
			return nil, err
		}
		svc, err := driveapi.NewService(ctx, option.WithTokenSource(ts))
		if err != nil {
			return nil, err
		}
		return &apiDrive{svc: svc}, nil
	}
}

type apiDrive struct {
	svc *driveapi.Service
}

func (a *apiDrive) FindFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", strings.ReplaceAll(name, "'", `\'`), folderMIME)
	res, err := a.svc.Files.List().Q(q).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(res.Files) == 0 {
		return "", nil
	}
	return res.Files[0].Id, nil
}

func (a *apiDrive) CreateFolder(ctx context.Context, name string) (string, error) {
	f, err := a.svc.Files.Create(&driveapi.File{Name: name, MimeType: folderMIME}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

func (a *apiDrive) Upload(ctx context.Context, name, mimeType, parentID string, body io.Reader) (*driveapi.File, error) {
	meta := &driveapi.File{Name: name, Parents: []string{parentID}, MimeType: mimeType}
	return a.svc.Files.Create(meta).Media(body).Fields("id, webViewLink, webContentLink").Context(ctx).Do()
}

func (a *apiDrive) ShareWithAnyone(ctx context.Context, fileID string) error {
	_, err := a.svc.Permissions.Create(fileID, &driveapi.Permission{Role: "reader", Type: "anyone"}).Context(ctx).Do()
	return err
}

// Result describes an uploaded file.
type Result struct {
	FileID      string `json:"fileId"`
	URL         string `json:"url"`
	WebViewLink string `json:"webViewLink"`
}

// Upload puts body into the app folder, creating the folder on first use,
// and makes the file readable by link.
func Upload(ctx context.Context, d Drive, name, mimeType string, body io.Reader, now time.Time) (*Result, error) {
	folderID, err := d.FindFolder(ctx, FolderName)
	if err != nil {
		return nil, err
	}
	if folderID == "" {
		if folderID, err = d.CreateFolder(ctx, FolderName); err != nil {
			return nil, err
		}
	}
	f, err := d.Upload(ctx, fmt.Sprintf("%d_%s", now.UnixMilli(), name), mimeType, folderID, body)
	if err != nil {
		return nil, err
	}
	if err := d.ShareWithAnyone(ctx, f.Id); err != nil {
		return nil, err
	}
	return &Result{FileID: f.Id, URL: viewURLBase + f.Id, WebViewLink: f.WebViewLink}, nil
}

type Handler struct {
	open Opener
	log  *zap.Logger
	now  func() time.Time
}

func NewHandler(open Opener, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{open: open, log: log, now: time.Now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/drive/upload", authMW, h.upload)
}

// POST /drive/upload
func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "파일이 없습니다.")
		return
	}
	ctx := c.Request.Context()
	d, err := h.open(ctx, middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.store(ctx, d, fh)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"fileId": res.FileID, "url": res.URL, "webViewLink": res.WebViewLink})
}

func (h *Handler) store(ctx context.Context, d Drive, fh *multipart.FileHeader) (*Result, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Upload(ctx, d, fh.Filename, fh.Header.Get("Content-Type"), f, h.now())
}

func (h *Handler) fail(c *gin.Context, err error) {
	if googleauth.NeedsReauth(err) {
		response.NeedAuth(c, "Google 인증이 만료되었습니다. 다시 로그인해주세요.")
		return
	}
	h.log.Warn("drive upload failed", zap.Error(err))
	response.InternalError(c, err)
}
