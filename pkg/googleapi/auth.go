// Package googleapi holds the Google OAuth flow and the Gmail and Calendar
// gateway implementations. Tokens persist to a local file so a single
// browser round trip survives restarts.
package googleapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	gmailapi "google.golang.org/api/gmail/v1"
)

// ErrNotAuthorized is returned before the OAuth flow has been completed.
var ErrNotAuthorized = errors.New("google account not authorized, visit /auth/google/start")

type Config struct {
	ClientID     string `envconfig:"CLIENT_ID" split_words:"true"`
	ClientSecret string `envconfig:"CLIENT_SECRET" split_words:"true"`
	RedirectURL  string `envconfig:"REDIRECT_URL" split_words:"true" default:"http://localhost:8000/auth/google/callback"`
	TokenPath    string `envconfig:"TOKEN_PATH" split_words:"true" default:".data/google_token.json"`
}

func (c Config) Configured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Authenticator owns the OAuth config and the token file.
type Authenticator struct {
	conf      *oauth2.Config
	tokenPath string

	mu sync.Mutex
}

func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{
		conf: &oauth2.Config{
			ClientID:     strings.TrimSpace(cfg.ClientID),
			ClientSecret: strings.TrimSpace(cfg.ClientSecret),
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				gmailapi.GmailReadonlyScope,
				calendarapi.CalendarReadonlyScope,
				calendarapi.CalendarEventsScope,
			},
		},
		tokenPath: cfg.TokenPath,
	}
}

// AuthURL starts the consent flow. Offline access plus forced consent keeps
// a refresh token in the response even on re-authorization.
func (a *Authenticator) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the callback code for a token and persists it.
func (a *Authenticator) Exchange(ctx context.Context, code string) error {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return a.saveToken(tok)
}

// TokenSource returns a source that refreshes transparently and writes
// refreshed tokens back to disk.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := a.loadToken()
	if err != nil {
		return nil, ErrNotAuthorized
	}
	return &persistingSource{
		auth:     a,
		delegate: a.conf.TokenSource(ctx, tok),
		last:     tok,
	}, nil
}

func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	raw, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(a.tokenPath, raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

type persistingSource struct {
	auth     *Authenticator
	delegate oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.delegate.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := s.last == nil || tok.AccessToken != s.last.AccessToken
	s.last = tok
	s.mu.Unlock()

	if changed {
		if err := s.auth.saveToken(tok); err != nil {
			log.Warn().Err(err).Msg("persisting refreshed google token failed")
		}
	}
	return tok, nil
}
