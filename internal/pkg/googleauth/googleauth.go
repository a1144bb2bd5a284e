// Package googleauth holds the Google OAuth client and the per-user token
// vault used by the Calendar and Drive integrations.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/smartwork/assistant/internal/config"
	"github.com/smartwork/assistant/internal/models"
	"github.com/smartwork/assistant/internal/pkg/apperr"
	"github.com/smartwork/assistant/internal/pkg/secure"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// ErrNoToken means the user has not granted Google access yet, or the grant
// was revoked. Callers answer with a needAuth response.
var ErrNoToken = errors.New("google authorization required")

// Scopes requested at sign-in.
var Scopes = []string{
	"openid",
	"email",
	"profile",
	calendar.CalendarScope,
	calendar.CalendarEventsScope,
	drive.DriveFileScope,
}

// NewOAuthConfig builds the OAuth client for cfg.
func NewOAuthConfig(cfg config.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// IsInvalidGrant reports whether err is Google rejecting a refresh token.
func IsInvalidGrant(err error) bool {
	if err == nil {
		return false
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
		return true
	}
	return strings.Contains(err.Error(), "invalid_grant")
}

// NeedsReauth reports whether the user must run Google sign-in again.
func NeedsReauth(err error) bool {
	if errors.Is(err, ErrNoToken) || IsInvalidGrant(err) {
		return true
	}
	var ge *googleapi.Error
	return errors.As(err, &ge) && ge.Code == 401
}

// StatusOf returns the HTTP status a Google API error carried, or 500.
func StatusOf(err error) int {
	var ge *googleapi.Error
	if errors.As(err, &ge) && ge.Code >= 400 {
		return ge.Code
	}
	return 500
}

// TokenRepo is the slice of the user store the vault needs.
type TokenRepo interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	SaveGoogleToken(ctx context.Context, userID, sealed string) error
}

// Vault seals Google tokens per user and hands out refreshing token sources
// that write rotated tokens back.
type Vault struct {
	repo   TokenRepo
	sealer *secure.Sealer
	oauth  *oauth2.Config
}

func NewVault(repo TokenRepo, sealer *secure.Sealer, oauth *oauth2.Config) *Vault {
	return &Vault{repo: repo, sealer: sealer, oauth: oauth}
}

// Save stores tok for userID. A token without a refresh token keeps the one
// already on file.
func (v *Vault) Save(ctx context.Context, userID string, tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("googleauth: nil token")
	}
	stored := *tok
	if stored.RefreshToken == "" {
		if prev, err := v.Load(ctx, userID); err == nil {
			stored.RefreshToken = prev.RefreshToken
		}
	}
	payload, err := json.Marshal(&stored)
	if err != nil {
		return err
	}
	sealed, err := v.sealer.Seal(payload, []byte(userID))
	if err != nil {
		return err
	}
	return v.repo.SaveGoogleToken(ctx, userID, sealed)
}

// Load returns the stored token or ErrNoToken.
func (v *Vault) Load(ctx context.Context, userID string) (*oauth2.Token, error) {
	user, err := v.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrNoToken
		}
		return nil, err
	}
	if user.GoogleToken == "" {
		return nil, ErrNoToken
	}
	plain, err := v.sealer.Open(user.GoogleToken, []byte(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(plain, &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

// Revoke clears the stored token.
func (v *Vault) Revoke(ctx context.Context, userID string) error {
	return v.repo.SaveGoogleToken(ctx, userID, "")
}

// TokenSource returns a source for userID that refreshes through Google and
// persists any new access token. An invalid_grant refresh clears the stored
// token and surfaces ErrNoToken.
func (v *Vault) TokenSource(ctx context.Context, userID string) (oauth2.TokenSource, error) {
	tok, err := v.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	base := v.oauth.TokenSource(context.WithoutCancel(ctx), tok)
	return &persistingSource{
		ctx:    context.WithoutCancel(ctx),
		vault:  v,
		userID: userID,
		base:   base,
		last:   tok.AccessToken,
	}, nil
}

type persistingSource struct {
	ctx    context.Context
	vault  *Vault
	userID string
	base   oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		if IsInvalidGrant(err) {
			_ = p.vault.Revoke(p.ctx, p.userID)
			return nil, fmt.Errorf("%w: %v", ErrNoToken, err)
		}
		return nil, err
	}
	p.mu.Lock()
	changed := tok.AccessToken != p.last
	p.last = tok.AccessToken
	p.mu.Unlock()
	if changed {
		_ = p.vault.Save(p.ctx, p.userID, tok)
	}
	return tok, nil
}
