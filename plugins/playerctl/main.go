// Package main is a skipspot player plugin for Linux. It drives any MPRIS
// player (Spotify desktop, VLC, browsers) through the playerctl command.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Source string          `json:"source"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the optional plugin config. Player restricts playerctl to one
// player name, e.g. "spotify".
type Config struct {
	Player string `json:"player"`
}

type playerState struct {
	IsPlaying     bool   `json:"is_playing"`
	VolumePercent int    `json:"volume_percent"`
	DevicePresent bool   `json:"device_present"`
	DeviceName    string `json:"device_name"`
	Track         string `json:"track"`
}

var errNoPlayer = errors.New("no players found")

// playerctl runs the playerctl binary and returns its trimmed stdout.
var playerctl = func(args ...string) (string, error) {
	out, err := exec.Command("playerctl", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && strings.Contains(string(exitErr.Stderr), "No players found") {
			return "", errNoPlayer
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// actionHandler handles one action and returns the response data, if any.
type actionHandler func(c *client, params json.RawMessage) (any, error)

var actionHandlers = map[string]actionHandler{
	"state":    (*client).state,
	"next":     simple("next"),
	"previous": simple("previous"),
	"pause":    simple("pause"),
	"resume":   simple("play"),
	"volume":   (*client).volume,
}

type client struct {
	player string
}

func (c *client) run(args ...string) (string, error) {
	if c.player != "" {
		args = append([]string{"--player=" + c.player}, args...)
	}
	return playerctl(args...)
}

func simple(command string) actionHandler {
	return func(c *client, _ json.RawMessage) (any, error) {
		_, err := c.run(command)
		return nil, err
	}
}

func (c *client) state(_ json.RawMessage) (any, error) {
	status, err := c.run("status")
	if errors.Is(err, errNoPlayer) {
		return playerState{}, nil
	}
	if err != nil {
		return nil, err
	}

	st := playerState{DevicePresent: true, IsPlaying: status == "Playing"}
	if vol, err := c.run("volume"); err == nil {
		st.VolumePercent = parseVolume(vol)
	}
	st.DeviceName, _ = c.run("metadata", "--format", "{{playerName}}")
	st.Track, _ = c.run("metadata", "--format", "{{artist}} - {{title}}")
	return st, nil
}

func (c *client) volume(params json.RawMessage) (any, error) {
	var p struct {
		Percent *int `json:"percent"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.Percent == nil {
		return nil, fmt.Errorf("volume needs {\"percent\": N}")
	}
	percent := min(max(*p.Percent, 0), 100)
	_, err := c.run("volume", strconv.FormatFloat(float64(percent)/100, 'f', 2, 64))
	return nil, err
}

// parseVolume converts playerctl's 0.0-1.0 volume to a percentage.
func parseVolume(s string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return min(max(int(v*100+0.5), 0), 100)
}

// handle decodes one request and produces its response.
func handle(in io.Reader) Response {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		return Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return Response{Error: fmt.Sprintf("invalid config: %v", err)}
		}
	}

	data, err := handler(&client{player: cfg.Player}, req.Params)
	if errors.Is(err, errNoPlayer) {
		return Response{Error: err.Error(), Code: "no_device"}
	}
	if err != nil {
		return Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}

	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Response{Error: err.Error()}
		}
		resp.Data = raw
	}
	return resp
}

func main() {
	json.NewEncoder(os.Stdout).Encode(handle(os.Stdin))
}
