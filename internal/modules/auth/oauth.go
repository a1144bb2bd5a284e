package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smartwork/assistant/internal/models"
	jwtpkg "github.com/smartwork/assistant/internal/pkg/jwt"
	"github.com/smartwork/assistant/internal/pkg/response"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	oauthapi "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const (
	stateCookie = "sw_oauth_state"
	stateTTL    = 10 * time.Minute
)

// Profile is the subset of Google's userinfo the app keeps.
type Profile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// OAuthClient is the part of *oauth2.Config the login flow calls.
type OAuthClient interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// ProfileFetcher loads the signed-in user's Google profile.
type ProfileFetcher func(ctx context.Context, tok *oauth2.Token) (*Profile, error)

// TokenSaver persists the user's Google tokens.
type TokenSaver interface {
	Save(ctx context.Context, userID string, tok *oauth2.Token) error
}

// FetchGoogleProfile calls the userinfo endpoint with tok.
func FetchGoogleProfile(ctx context.Context, tok *oauth2.Token) (*Profile, error) {
	svc, err := oauthapi.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(tok)))
	if err != nil {
		return nil, err
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return &Profile{ID: info.Id, Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}

// GET /auth/google?callback_url=/path
func (h *Handler) redirectToGoogle(c *gin.Context) {
	if h.oauth == nil {
		response.NotFoundMsg(c, "Google sign-in is not configured")
		return
	}
	state, err := jwtpkg.SignState(safeCallback(c.Query("callback_url")), stateTTL)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	h.setCookie(c, stateCookie, state, int(stateTTL.Seconds()))
	url := h.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GET /auth/callback/google?code=...&state=...
func (h *Handler) handleCallback(c *gin.Context) {
	if h.oauth == nil {
		response.NotFoundMsg(c, "Google sign-in is not configured")
		return
	}
	if errParam := c.Query("error"); errParam != "" {
		response.BadRequest(c, "Google sign-in failed: "+errParam)
		return
	}
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "missing code")
		return
	}

	state := c.Query("state")
	cookieState, _ := c.Cookie(stateCookie)
	if state == "" || state != cookieState {
		response.BadRequest(c, "invalid state")
		return
	}
	claims, err := jwtpkg.ParseState(state)
	if err != nil {
		response.BadRequest(c, "invalid state")
		return
	}
	h.setCookie(c, stateCookie, "", -1)

	ctx := c.Request.Context()
	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.log.Warn("google token exchange failed", zap.Error(err))
		response.InternalError(c, fmt.Errorf("token exchange failed: %w", err))
		return
	}
	profile, err := h.fetchProfile(ctx, tok)
	if err != nil {
		response.InternalError(c, fmt.Errorf("failed to fetch user info: %w", err))
		return
	}
	if profile.ID == "" {
		response.InternalError(c, fmt.Errorf("google profile has no id"))
		return
	}

	now := time.Now()
	user := &models.User{
		ID:          profile.ID,
		Email:       strings.ToLower(profile.Email),
		Name:        profile.Name,
		Image:       profile.Picture,
		LastLoginAt: &now,
	}
	if err := h.users.UpsertUser(ctx, user); err != nil {
		response.InternalError(c, err)
		return
	}
	if h.tokens != nil {
		if err := h.tokens.Save(ctx, user.ID, tok); err != nil {
			h.log.Error("store google token failed", zap.String("user", user.ID), zap.Error(err))
		}
	}

	if err := h.issueSession(c, user); err != nil {
		response.InternalError(c, err)
		return
	}
	c.Redirect(http.StatusFound, claims.CallbackURL)
}

// safeCallback keeps only same-site paths.
func safeCallback(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return "/"
	}
	return raw
}
