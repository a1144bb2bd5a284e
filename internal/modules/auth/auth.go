// Package auth signs users in with Google and issues session tokens.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/middleware"
	"github.com/smartwork/assistant/internal/models"
	jwtpkg "github.com/smartwork/assistant/internal/pkg/jwt"
	"github.com/smartwork/assistant/internal/pkg/response"
	"go.uber.org/zap"
)

// UserRepo is the slice of the store the auth flow needs.
type UserRepo interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type Options struct {
	// SessionTTL is how long an issued session stays valid.
	SessionTTL time.Duration
	// Secure marks cookies Secure; set when the app is served over HTTPS.
	Secure  bool
	IsAdmin func(email string) bool
}

type Handler struct {
	oauth        OAuthClient
	fetchProfile ProfileFetcher
	users        UserRepo
	tokens       TokenSaver
	opts         Options
	log          *zap.Logger
}

// NewHandler builds the auth handler. oauth may be nil when Google sign-in is
// not configured; only the session endpoints then work.
func NewHandler(oauth OAuthClient, fetch ProfileFetcher, users UserRepo, tokens TokenSaver, opts Options, log *zap.Logger) *Handler {
	if fetch == nil {
		fetch = FetchGoogleProfile
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.IsAdmin == nil {
		opts.IsAdmin = func(string) bool { return false }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{oauth: oauth, fetchProfile: fetch, users: users, tokens: tokens, opts: opts, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.GET("/google", h.redirectToGoogle)
	g.GET("/callback/google", h.handleCallback)
	g.GET("/session", authMW, h.session)
	g.POST("/logout", h.logout)
}

func (h *Handler) issueSession(c *gin.Context, user *models.User) error {
	token, err := jwtpkg.Sign(user.ID, user.Email, user.Name, h.opts.SessionTTL)
	if err != nil {
		return err
	}
	h.setCookie(c, middleware.SessionCookie, token, int(h.opts.SessionTTL.Seconds()))
	return nil
}

func (h *Handler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.opts.Secure, true)
}

// GET /auth/session
func (h *Handler) session(c *gin.Context) {
	uid := middleware.CurrentUserID(c)
	user, err := h.users.GetUser(c.Request.Context(), uid)
	if err != nil {
		// A valid token for an account that no longer exists.
		response.Unauthorized(c)
		return
	}
	response.OK(c, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"image": user.Image,
		},
		"isAdmin": h.opts.IsAdmin(strings.ToLower(user.Email)),
	})
}

// POST /auth/logout
func (h *Handler) logout(c *gin.Context) {
	h.setCookie(c, middleware.SessionCookie, "", -1)
	response.Success(c, nil)
}
