package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"

	"github.com/ayusman/skipspot/internal/log"
)

// Scopes needed to read and control playback.
var Scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

// TokenStore persists the OAuth token between runs. LoadToken returns nil
// without error when nothing was saved yet.
type TokenStore interface {
	LoadToken(ctx context.Context) (*oauth2.Token, error)
	SaveToken(ctx context.Context, token *oauth2.Token) error
}

// AuthConfig configures an Authenticator.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Store keeps the token across runs. Optional.
	Store TokenStore
	// Timeout bounds the wait for the browser callback.
	Timeout time.Duration
	// OpenBrowser shows the consent page. Defaults to OpenBrowser.
	OpenBrowser func(target string) error
	// Endpoint overrides the Spotify accounts endpoint, for tests.
	Endpoint *oauth2.Endpoint
}

// Authenticator owns the Spotify token. It is an oauth2.TokenSource that
// refreshes and persists tokens, and it runs the interactive authorization
// code flow when no usable token exists.
type Authenticator struct {
	oauth       *oauth2.Config
	store       TokenStore
	timeout     time.Duration
	openBrowser func(string) error
	logger      *slog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewAuthenticator creates an Authenticator. Call Load to pick up a saved token.
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	endpoint := spotify.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.OpenBrowser == nil {
		cfg.OpenBrowser = OpenBrowser
	}

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		store:       cfg.Store,
		timeout:     cfg.Timeout,
		openBrowser: cfg.OpenBrowser,
		logger:      log.Component("auth"),
	}
}

// Load reads the saved token, if any.
func (a *Authenticator) Load(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	token, err := a.store.LoadToken(ctx)
	if err != nil {
		return fmt.Errorf("playback: load token: %w", err)
	}
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
	return nil
}

// HasToken reports whether a token, possibly expired, is available.
func (a *Authenticator) HasToken() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != nil
}

// Token implements oauth2.TokenSource. An expired token is refreshed and saved.
func (a *Authenticator) Token() (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil {
		return nil, fmt.Errorf("%w: no token, run skipspot auth", ErrUnauthenticated)
	}
	if a.token.Valid() {
		return a.token, nil
	}
	if a.token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired", ErrUnauthenticated)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	refreshed, err := a.oauth.TokenSource(ctx, a.token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh: %v", ErrUnauthenticated, err)
	}
	a.token = refreshed
	a.save(ctx, refreshed)
	return refreshed, nil
}

// HTTPClient returns a client that signs requests with the current token.
// Tokens replaced by Authorize are picked up on the next request.
func (a *Authenticator) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, a)
}

// Reauthorize runs the interactive flow again after the service rejected the token.
func (a *Authenticator) Reauthorize(ctx context.Context) error {
	a.logger.Warn("music service rejected the token, starting reauthorization")
	return a.Authorize(ctx)
}

// Authorize runs the authorization code flow: it serves the redirect URL on
// localhost, opens the consent page and waits for the callback, then
// exchanges the code for a token and saves it.
func (a *Authenticator) Authorize(ctx context.Context) error {
	redirect, err := url.Parse(a.oauth.RedirectURL)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("playback: invalid redirect url %q", a.oauth.RedirectURL)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("playback: listen for callback on %s: %w", redirect.Host, err)
	}

	state := uuid.NewString()
	codes := make(chan string, 1)
	failures := make(chan error, 1)

	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if reason := q.Get("error"); reason != "" {
			http.Error(w, "authorization failed: "+reason, http.StatusBadRequest)
			select {
			case failures <- fmt.Errorf("playback: authorization denied: %s", reason):
			default:
			}
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "skipspot is authorized. You can close this tab.")
		select {
		case codes <- code:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(listener)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := a.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
	a.logger.Info("waiting for authorization in the browser", "url", authURL)
	if err := a.openBrowser(authURL); err != nil {
		a.logger.Warn("could not open a browser, open the url manually", "error", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var code string
	select {
	case code = <-codes:
	case err := <-failures:
		return err
	case <-waitCtx.Done():
		return fmt.Errorf("playback: authorization not completed: %w", waitCtx.Err())
	}

	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("playback: exchange code: %w", err)
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
	a.save(ctx, token)

	a.logger.Info("authorization complete")
	return nil
}

func (a *Authenticator) save(ctx context.Context, token *oauth2.Token) {
	if a.store == nil {
		return
	}
	if err := a.store.SaveToken(ctx, token); err != nil {
		a.logger.Warn("failed to save token", "error", err)
	}
}

// Verify checks the token against the API, running the interactive flow when
// there is no token or the API rejects it.
func (a *Authenticator) Verify(ctx context.Context, client *SpotifyClient) (*User, error) {
	if !a.HasToken() {
		if err := a.Authorize(ctx); err != nil {
			return nil, err
		}
	}

	user, err := client.Me(ctx)
	if errors.Is(err, ErrUnauthenticated) {
		if err := a.Reauthorize(ctx); err != nil {
			return nil, err
		}
		user, err = client.Me(ctx)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// OpenBrowser opens target with the platform's default handler.
func OpenBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
