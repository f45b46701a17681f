package playback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ayusman/skipspot/internal/log"
	"github.com/ayusman/skipspot/internal/plugin"
)

// PluginClient implements Client by running an external player plugin.
type PluginClient struct {
	executor *plugin.Executor
	plugin   *plugin.Plugin
	source   string
	config   json.RawMessage
	logger   *slog.Logger
}

// NewPluginClient creates a client for p. config is passed to every call as-is.
func NewPluginClient(executor *plugin.Executor, p *plugin.Plugin, config json.RawMessage) *PluginClient {
	return &PluginClient{
		executor: executor,
		plugin:   p,
		config:   config,
		logger:   log.Component("plugin-client").With("plugin", p.Manifest.Name),
	}
}

// WithSource returns a copy that tags requests with the event source ("gesture" or "voice").
func (c *PluginClient) WithSource(source string) *PluginClient {
	cp := *c
	cp.source = source
	return &cp
}

type pluginState struct {
	IsPlaying     bool   `json:"is_playing"`
	VolumePercent int    `json:"volume_percent"`
	DevicePresent bool   `json:"device_present"`
	DeviceName    string `json:"device_name"`
	Track         string `json:"track"`
}

// State asks the plugin for the player state. No player means nil state.
func (c *PluginClient) State(ctx context.Context) (*State, error) {
	resp, err := c.call(ctx, plugin.ActionState, nil)
	if errors.Is(err, errNoDevice) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data pluginState
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, fmt.Errorf("playback: decode plugin state: %w", err)
		}
	}
	if !data.DevicePresent {
		return nil, nil
	}
	return &State{
		IsPlaying:     data.IsPlaying,
		VolumePercent: ClampVolume(data.VolumePercent),
		DevicePresent: true,
		DeviceName:    data.DeviceName,
		Track:         data.Track,
	}, nil
}

func (c *PluginClient) Next(ctx context.Context) error {
	_, err := c.call(ctx, plugin.ActionNext, nil)
	return err
}

func (c *PluginClient) Previous(ctx context.Context) error {
	_, err := c.call(ctx, plugin.ActionPrevious, nil)
	return err
}

func (c *PluginClient) Pause(ctx context.Context) error {
	_, err := c.call(ctx, plugin.ActionPause, nil)
	return err
}

func (c *PluginClient) Resume(ctx context.Context) error {
	_, err := c.call(ctx, plugin.ActionResume, nil)
	return err
}

// SetVolume sends {"percent": N} with N clamped to 0..100.
func (c *PluginClient) SetVolume(ctx context.Context, percent int) error {
	params, err := json.Marshal(map[string]int{"percent": ClampVolume(percent)})
	if err != nil {
		return err
	}
	_, err = c.call(ctx, plugin.ActionVolume, params)
	return err
}

var errNoDevice = errors.New("playback: no device")

func (c *PluginClient) call(ctx context.Context, action string, params json.RawMessage) (*plugin.Response, error) {
	resp, err := c.executor.Execute(ctx, c.plugin, &plugin.Request{
		Action: action,
		Source: c.source,
		Config: c.config,
		Params: params,
	})
	if err != nil {
		if errors.Is(err, plugin.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("playback: plugin %s: %w", action, err)
	}

	c.logger.Debug("plugin call", "action", action, "success", resp.Success, "code", resp.Code)

	if resp.Success {
		return resp, nil
	}
	switch resp.Code {
	case plugin.CodeNoDevice:
		return nil, errNoDevice
	case plugin.CodeUnauthenticated:
		return nil, fmt.Errorf("%w: %s", ErrUnauthenticated, resp.Error)
	case plugin.CodeForbidden:
		return nil, fmt.Errorf("%w: %s", ErrForbidden, resp.Error)
	}
	return nil, fmt.Errorf("playback: plugin %s failed: %s", action, resp.Error)
}
