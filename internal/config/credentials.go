package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMissingCredentials is returned when neither the credentials file nor the
// environment supply a client id and secret.
var ErrMissingCredentials = errors.New("config: spotify client_id and client_secret are required")

// DefaultRedirectURI is used when the credentials do not name one.
const DefaultRedirectURI = "http://127.0.0.1:8888/callback"

// Credentials identify the application to the music service.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
}

// LoadCredentials reads a credentials.json file and applies the
// SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET and SPOTIFY_REDIRECT_URI overrides.
// A missing file is fine as long as the environment fills the gaps.
func LoadCredentials(path string) (*Credentials, error) {
	creds := &Credentials{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, creds); err != nil {
				return nil, fmt.Errorf("failed to parse credentials %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read credentials: %w", err)
		}
	}

	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		creds.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		creds.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		creds.RedirectURI = v
	}

	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if creds.RedirectURI == "" {
		creds.RedirectURI = DefaultRedirectURI
	}
	return creds, nil
}
