// Package plugin discovers and runs external player plugins. A plugin is a
// directory holding a plugin.json manifest and an executable that reads one
// JSON Request on stdin and writes one JSON Response on stdout.
package plugin

import "encoding/json"

// Player actions every playback plugin must implement.
const (
	ActionState    = "state"
	ActionNext     = "next"
	ActionPrevious = "previous"
	ActionPause    = "pause"
	ActionResume   = "resume"
	ActionVolume   = "volume"
)

// PlayerActions lists the actions a playback plugin must declare.
var PlayerActions = []string{ActionState, ActionNext, ActionPrevious, ActionPause, ActionResume, ActionVolume}

// Response codes a plugin may set when Success is false.
const (
	CodeNoDevice        = "no_device"
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the manifest declares action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action string          `json:"action"`
	Source string          `json:"source,omitempty"` // "gesture" or "voice"
	Config json.RawMessage `json:"config,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
