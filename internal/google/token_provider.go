package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/oauth2"
)

// DefaultAccount is the account name used when none is given.
const DefaultAccount = "default"

// ErrNoToken is returned when no token is stored for an account.
var ErrNoToken = errors.New("no Google OAuth token found")

// TokenProvider provides OAuth tokens for Google APIs.
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// TokenStore persists tokens.
type TokenStore interface {
	SaveToken(account string, tok *oauth2.Token) error
}

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateAccountName(account string) error {
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// FileTokenProvider stores one JSON token file per account in a directory.
type FileTokenProvider struct {
	dir string
}

// NewFileTokenProvider creates a provider rooted at dir. An empty dir
// selects DefaultTokenDir.
func NewFileTokenProvider(dir string) *FileTokenProvider {
	if dir == "" {
		dir = DefaultTokenDir()
	}
	return &FileTokenProvider{dir: dir}
}

// DefaultTokenDir returns <user cache dir>/calendaragent.
func DefaultTokenDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "calendaragent")
}

// TokenPath returns the token file path for account.
func (p *FileTokenProvider) TokenPath(account string) string {
	return filepath.Join(p.dir, "google-"+account+".token")
}

// GetTokenForAccount reads the stored token of account.
func (p *FileTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.TokenPath(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("account %s: %w", account, ErrNoToken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("account %s: %w", account, ErrNoToken)
	}
	return &tok, nil
}

// HasTokenForAccount checks if a token file exists for the specified account.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(p.TokenPath(account))
	return err == nil
}

// SaveToken writes tok for account with owner-only permissions.
func (p *FileTokenProvider) SaveToken(account string, tok *oauth2.Token) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp := p.TokenPath(account) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, p.TokenPath(account)); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// GetAuthenticationErrorMessage tells the user how to authorize account.
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("Google Calendar is not authorized for account %q. "+
		"Run 'calendaragent auth url --account %s', open the URL, then run "+
		"'calendaragent auth save-code --account %s <code>'.", account, account, account)
}
