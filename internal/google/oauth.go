package google

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

const (
	secretFile = "credentials.json"
	tokenFile  = "token.json"
)

// AuthError indicates that no usable credential could be obtained and the
// user has to (re-)authorize the application.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// Manager owns the on-disk credential state. Callers obtain tokens
// through EnsureToken and never touch the token file directly.
type Manager struct {
	// ConfigDir holds credentials.json and token.json.
	ConfigDir string

	// In and Out drive the interactive authorization prompt.
	In  io.Reader
	Out io.Writer

	Log *slog.Logger
}

// NewManager returns a Manager rooted at configDir. An empty configDir
// selects <user config dir>/gmailtriage.
func NewManager(configDir string, log *slog.Logger) (*Manager, error) {
	if configDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		configDir = filepath.Join(base, "gmailtriage")
	}
	return &Manager{
		ConfigDir: configDir,
		In:        os.Stdin,
		Out:       os.Stdout,
		Log:       log,
	}, nil
}

func (m *Manager) secretPath() string { return filepath.Join(m.ConfigDir, secretFile) }
func (m *Manager) tokenPath() string  { return filepath.Join(m.ConfigDir, tokenFile) }

// config parses the OAuth2 client secret downloaded from the GCP console.
func (m *Manager) config() (*oauth2.Config, error) {
	b, err := os.ReadFile(m.secretPath())
	if err != nil {
		return nil, &AuthError{
			Reason: fmt.Sprintf("client secret not found; download OAuth credentials from the GCP console and save them as %s", m.secretPath()),
			Err:    err,
		}
	}
	conf, err := google.ConfigFromJSON(b, gmail.GmailModifyScope)
	if err != nil {
		return nil, &AuthError{Reason: "invalid client secret file", Err: err}
	}
	return conf, nil
}

// EnsureToken returns a valid OAuth2 token, refreshing or re-authorizing
// as needed. A still-valid persisted token is returned as-is, so calling
// EnsureToken twice without expiry yields the same token.
func (m *Manager) EnsureToken(ctx context.Context) (*oauth2.Token, error) {
	conf, err := m.config()
	if err != nil {
		return nil, err
	}

	tok, err := loadToken(m.tokenPath())
	switch {
	case err == nil && tok.Valid():
		return tok, nil
	case err == nil && tok.RefreshToken != "":
		fresh, rerr := conf.TokenSource(ctx, tok).Token()
		if rerr != nil {
			return nil, &AuthError{
				Reason: "token refresh failed (revoked?); run 'gmailtriage auth' to re-authenticate",
				Err:    rerr,
			}
		}
		if err := m.persist(fresh); err != nil {
			return nil, err
		}
		m.Log.Debug("refreshed oauth token", "expiry", fresh.Expiry)
		return fresh, nil
	default:
		return m.Authorize(ctx)
	}
}

// Authorize runs the interactive flow: the user opens the authorization
// URL in a browser and pastes the resulting code back on stdin. The
// exchanged token is persisted before it is returned.
func (m *Manager) Authorize(ctx context.Context) (*oauth2.Token, error) {
	conf, err := m.config()
	if err != nil {
		return nil, err
	}

	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(m.Out, "Open the following link in your browser, then paste the authorization code:\n%v\n> ", authURL)

	var code string
	scanner := bufio.NewScanner(m.In)
	if scanner.Scan() {
		code = scanner.Text()
	}
	if code == "" {
		return nil, &AuthError{Reason: "no authorization code entered"}
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthError{Reason: "authorization code exchange failed", Err: err}
	}
	if err := m.persist(tok); err != nil {
		return nil, err
	}
	m.Log.Info("authorized", "token_file", m.tokenPath())
	return tok, nil
}

// Client returns an HTTP client that attaches the ensured token to every
// request, refreshing transparently while the process runs.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	conf, err := m.config()
	if err != nil {
		return nil, err
	}
	tok, err := m.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}
	return conf.Client(ctx, tok), nil
}

// HasToken reports whether a persisted token exists.
func (m *Manager) HasToken() bool {
	_, err := os.Stat(m.tokenPath())
	return err == nil
}

// Reset removes the persisted token, forcing a fresh authorization on the
// next run.
func (m *Manager) Reset() error {
	if err := os.Remove(m.tokenPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
