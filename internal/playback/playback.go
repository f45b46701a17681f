// Package playback talks to the music service. Client is the boundary the
// dispatcher uses; SpotifyClient implements it over the Spotify Web API and
// PluginClient over an external player plugin.
package playback

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure kinds the dispatcher distinguishes.
var (
	ErrUnauthenticated = errors.New("playback: unauthenticated")
	ErrForbidden       = errors.New("playback: forbidden")
	ErrTimeout         = errors.New("playback: call timed out")
)

// State is the remote player as last reported.
type State struct {
	IsPlaying     bool   `json:"is_playing"`
	VolumePercent int    `json:"volume_percent"`
	DevicePresent bool   `json:"device_present"`
	DeviceName    string `json:"device_name,omitempty"`
	Track         string `json:"track,omitempty"`
}

// Client controls a remote player. State returns nil with no error when
// nothing is playing anywhere. Every call may fail with an error matching
// ErrUnauthenticated, ErrForbidden or ErrTimeout.
type Client interface {
	State(ctx context.Context) (*State, error)
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	SetVolume(ctx context.Context, percent int) error
}

// APIError is a non-2xx answer from the music service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("playback: %d %s", e.StatusCode, msg)
}

// Is maps 401 to ErrUnauthenticated and 403 to ErrForbidden.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// IsUnauthorized reports whether err means the token is missing or expired.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsForbidden reports whether err means the account or device refused the call.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// ClampVolume limits percent to 0..100.
func ClampVolume(percent int) int {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	}
	return percent
}
