package google

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// Environment variables consulted for credentials.
const (
	EnvClientID     = "INBOXAGENT_GOOGLE_CLIENT_ID"
	EnvClientSecret = "INBOXAGENT_GOOGLE_CLIENT_SECRET"
	EnvStaticToken  = "INBOXAGENT_GOOGLE_TOKEN"
	EnvTokenFile    = "INBOXAGENT_GOOGLE_TOKEN_FILE"
)

// Scopes are the Google OAuth scopes the agent needs: reading and
// labeling the inbox, sending replies, and checking and booking the
// calendar.
var Scopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
	calendar.CalendarScope,
}

// HasToken reports whether any credential source is configured.
func HasToken() bool {
	if os.Getenv(EnvStaticToken) != "" {
		return true
	}
	_, err := os.ReadFile(tokenFile())
	return err == nil
}

// GetAuthURL returns the OAuth URL for user authorization.
func GetAuthURL() (string, error) {
	conf, err := oauthConfig()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("state", oauth2.AccessTypeOffline), nil
}

// SaveToken exchanges an authorization code for tokens and caches them
// on disk.
func SaveToken(ctx context.Context, authCode string) error {
	conf, err := oauthConfig()
	if err != nil {
		return err
	}
	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	path := tokenFile()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(formatToken(t)), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// GetTokenSource returns an OAuth2 token source. A static token from
// the environment wins; otherwise the cached refresh token is used and
// validated once before being handed out.
func GetTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if token := os.Getenv(EnvStaticToken); token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}), nil
	}

	conf, err := oauthConfig()
	if err != nil {
		return nil, err
	}
	slurp, err := os.ReadFile(tokenFile())
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token found, run the auth command first")
	}
	token, err := parseToken(string(slurp))
	if err != nil {
		return nil, err
	}

	ts := conf.TokenSource(ctx, token)
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("cached token is invalid: %w", err)
	}
	return ts, nil
}

// oauthConfig builds the OAuth2 client configuration from the
// environment. There is no baked-in client: every deployment brings
// its own.
func oauthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv(EnvClientID)
	clientSecret := os.Getenv(EnvClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%s and %s must be set", EnvClientID, EnvClientSecret)
	}
	const oob = "urn:ietf:wg:oauth:2.0:oob"
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  oob,
		Scopes:       Scopes,
	}, nil
}

// formatToken serializes a token as the two-field "access refresh"
// cache format.
func formatToken(t *oauth2.Token) string {
	return t.AccessToken + " " + t.RefreshToken
}

// parseToken reads the cache format back. The expiry is set to the
// distant past so the first use always refreshes.
func parseToken(s string) (*oauth2.Token, error) {
	f := strings.Fields(strings.TrimSpace(s))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format")
	}
	return &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	}, nil
}

func tokenFile() string {
	if path := os.Getenv(EnvTokenFile); path != "" {
		return path
	}
	return filepath.Join(userCacheDir(), "inboxagent", "google.token")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
