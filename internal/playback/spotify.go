package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/ayusman/skipspot/internal/log"
)

// DefaultAPIBase is the Spotify Web API root.
const DefaultAPIBase = "https://api.spotify.com/v1"

// SpotifyClient implements Client against the Spotify Web API. The HTTP
// client is expected to attach the bearer token, usually one built by
// Authenticator.HTTPClient.
type SpotifyClient struct {
	api    *spotify.Client
	logger *slog.Logger
}

// NewSpotifyClient creates a client. An empty baseURL means DefaultAPIBase.
func NewSpotifyClient(httpClient *http.Client, baseURL string) *SpotifyClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultAPIBase
	}
	return &SpotifyClient{
		api:    spotify.New(httpClient, spotify.WithBaseURL(strings.TrimRight(baseURL, "/")+"/")),
		logger: log.Component("spotify"),
	}
}

// State fetches the current playback. The API answers 204 when no session
// exists anywhere, which arrives here as an empty player.
func (c *SpotifyClient) State(ctx context.Context) (*State, error) {
	player, err := c.api.PlayerState(ctx)
	c.logger.Debug("api call", "op", "state", "error", err)
	if err != nil {
		return nil, classify(err)
	}
	if player == nil || (player.Device.ID == "" && !player.Device.Active && player.Item == nil && !player.Playing) {
		return nil, nil
	}

	state := &State{IsPlaying: player.Playing}
	if player.Device.ID != "" || player.Device.Active {
		state.DevicePresent = true
		state.DeviceName = player.Device.Name
		state.VolumePercent = ClampVolume(int(player.Device.Volume))
	}
	if player.Item != nil {
		state.Track = player.Item.Name
		if len(player.Item.Artists) > 0 {
			state.Track += " - " + player.Item.Artists[0].Name
		}
	}
	return state, nil
}

// Next skips to the next track.
func (c *SpotifyClient) Next(ctx context.Context) error {
	return c.command("next", c.api.Next(ctx))
}

// Previous returns to the previous track.
func (c *SpotifyClient) Previous(ctx context.Context) error {
	return c.command("previous", c.api.Previous(ctx))
}

// Pause pauses playback.
func (c *SpotifyClient) Pause(ctx context.Context) error {
	return c.command("pause", c.api.Pause(ctx))
}

// Resume resumes playback on the active device.
func (c *SpotifyClient) Resume(ctx context.Context) error {
	return c.command("resume", c.api.Play(ctx))
}

// SetVolume sets the device volume, clamped to 0..100.
func (c *SpotifyClient) SetVolume(ctx context.Context, percent int) error {
	return c.command("volume", c.api.Volume(ctx, ClampVolume(percent)))
}

// User is the authenticated account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Product     string `json:"product"`
}

// Me returns the account behind the token. It doubles as an auth check.
func (c *SpotifyClient) Me(ctx context.Context) (*User, error) {
	u, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return &User{ID: string(u.ID), DisplayName: u.DisplayName, Product: u.Product}, nil
}

func (c *SpotifyClient) command(op string, err error) error {
	c.logger.Debug("api call", "op", op, "error", err)
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify maps library and transport errors onto the package's kinds.
func classify(err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.Status, Message: apiErr.Message}
	}

	var retrieve *oauth2.RetrieveError
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.As(err, &urlErr) && urlErr.Timeout():
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.As(err, &retrieve):
		return fmt.Errorf("%w: token refresh: %v", ErrUnauthenticated, retrieve)
	case errors.Is(err, ErrUnauthenticated):
		return err
	}
	return fmt.Errorf("playback: request failed: %w", err)
}
