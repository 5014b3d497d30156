package google

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultRedirectURL is used when no redirect URL is configured. The
// authorization code is copied from the browser's address bar.
const DefaultRedirectURL = "http://localhost"

// Scopes are the OAuth scopes requested for calendar access.
var Scopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}

// OAuthConfig holds the client credentials for the Google OAuth flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Config returns the oauth2 configuration for calendar access.
func (c OAuthConfig) Config() (*oauth2.Config, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return nil, fmt.Errorf("google client id and client secret are required")
	}
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  redirect,
		Scopes:       Scopes,
	}, nil
}

// AuthURL returns the URL the user opens to grant calendar access.
// Offline access is requested so that a refresh token is issued.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeAndSave exchanges an authorization code for a token and stores it
// for account.
func ExchangeAndSave(ctx context.Context, conf *oauth2.Config, store TokenStore, account, code string) error {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := store.SaveToken(account, tok); err != nil {
		return err
	}
	return nil
}

// NewHTTPClient returns an HTTP client that authenticates requests with the
// token of account. Refreshed tokens are written back when the provider is
// also a TokenStore. The client speaks HTTP/1.1 only.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, provider TokenProvider, account string) (*http.Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	tok, err := provider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	var src oauth2.TokenSource = conf.TokenSource(ctx, tok)
	if store, ok := provider.(TokenStore); ok {
		src = &savingTokenSource{src: src, store: store, account: account, last: tok.AccessToken}
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.ForceAttemptHTTP2 = false
	base.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(tok, src),
			Base:   base,
		},
	}, nil
}

// savingTokenSource persists tokens whose access token changed.
type savingTokenSource struct {
	src     oauth2.TokenSource
	store   TokenStore
	account string
	last    string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		if err := s.store.SaveToken(s.account, tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
