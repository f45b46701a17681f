// Package config loads skipspot settings from a YAML file.
//
// A missing file is not an error: Default() describes a working setup
// for a single webcam, the counting gesture scheme and a Spotify account.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the per-user data directory under $HOME.
	DefaultBaseDir = ".skipspot"
	// DefaultConfigFile is the config filename inside DefaultBaseDir.
	DefaultConfigFile = "config.yaml"
)

// Duration is a time.Duration written as a Go duration string ("1s", "250ms").
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts either a duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case int64:
		*d = Duration(time.Duration(v) * time.Second)
	case uint64:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the root of the YAML document.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Features FeatureConfig  `yaml:"features"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Voice    VoiceConfig    `yaml:"voice"`
	Playback PlaybackConfig `yaml:"playback"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`

	path string
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// CameraConfig controls frame acquisition.
type CameraConfig struct {
	Device int  `yaml:"device"`
	Mirror bool `yaml:"mirror"`
	// Preview opens a window showing the camera feed; pressing q or Esc in it
	// ends the gesture session.
	Preview         bool    `yaml:"preview"`
	MotionGate      bool    `yaml:"motion_gate"`
	MotionThreshold float64 `yaml:"motion_threshold"`
}

// DetectorConfig configures the MediaPipe landmark service.
type DetectorConfig struct {
	Script           string  `yaml:"script"`
	Python           string  `yaml:"python"`
	MinDetectionConf float64 `yaml:"min_detection_confidence"`
	MinTrackingConf  float64 `yaml:"min_tracking_confidence"`
}

// FeatureConfig selects and tunes the finger-state extractor.
type FeatureConfig struct {
	Method            string  `yaml:"method"` // "offset" or "angle"
	VerticalThreshold float64 `yaml:"vertical_threshold"`
	LateralThreshold  float64 `yaml:"lateral_threshold"`
	AngleThreshold    float64 `yaml:"angle_threshold"` // degrees
	FistRadius        float64 `yaml:"fist_radius"`
}

// GestureConfig selects the classifier scheme and tunes the smoother.
type GestureConfig struct {
	Scheme     string   `yaml:"scheme"` // "counting" or "pointing"
	BufferSize int      `yaml:"buffer_size"`
	Confidence float64  `yaml:"confidence"`
	Cooldown   Duration `yaml:"cooldown"`
}

// VoiceCommand binds one action to its trigger phrases.
type VoiceCommand struct {
	Action   string   `yaml:"action"`
	Triggers []string `yaml:"triggers"`
}

// VoiceConfig configures the speech source and the command matcher.
type VoiceConfig struct {
	Engine        string         `yaml:"engine"` // "google" or "openai"
	Locale        string         `yaml:"locale"`
	ListenTimeout Duration       `yaml:"listen_timeout"`
	PhraseLimit   Duration       `yaml:"phrase_limit"`
	Calibration   Duration       `yaml:"calibration"`
	Recorder      []string       `yaml:"recorder"`
	SampleRate    int            `yaml:"sample_rate"`
	ExitPhrases   []string       `yaml:"exit_phrases"`
	Commands      []VoiceCommand `yaml:"commands"`
}

// PlaybackConfig configures the music-service client and the dispatcher.
type PlaybackConfig struct {
	Backend     string   `yaml:"backend"` // "spotify" or "plugin"
	Credentials string   `yaml:"credentials"`
	VolumeStep  int      `yaml:"volume_step"`
	CallTimeout Duration `yaml:"call_timeout"`
	AuthTimeout Duration `yaml:"auth_timeout"`
	PluginDir   string   `yaml:"plugin_dir"`
	Plugin      string   `yaml:"plugin"`
}

// ServerConfig configures the local status server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultVoiceCommands is the ordered Portuguese/English trigger table.
// Order matters: the first action with a matching trigger wins.
func DefaultVoiceCommands() []VoiceCommand {
	return []VoiceCommand{
		{Action: "pause", Triggers: []string{"pause", "pausar", "stop", "parar", "parar música"}},
		{Action: "play", Triggers: []string{"play", "tocar", "retomar", "continuar"}},
		{Action: "skip", Triggers: []string{"skip", "pular", "próxima", "próxima música"}},
		{Action: "previous", Triggers: []string{"previous", "anterior", "voltar", "música anterior"}},
		{Action: "volume_up", Triggers: []string{"volume up", "aumentar volume", "aumentar o volume", "volume mais alto"}},
		{Action: "volume_down", Triggers: []string{"volume down", "diminuir volume", "diminuir o volume", "volume mais baixo"}},
	}
}

// Default returns a Config with every default filled in.
func Default() *Config {
	base := BaseDir()
	return &Config{
		Log: LogConfig{Level: "info"},
		Camera: CameraConfig{
			Device:          0,
			Mirror:          true,
			MotionThreshold: 1.0,
		},
		Detector: DetectorConfig{
			MinDetectionConf: 0.8,
			MinTrackingConf:  0.8,
		},
		Features: FeatureConfig{
			Method:            "offset",
			VerticalThreshold: 0.25,
			LateralThreshold:  0.15,
			AngleThreshold:    15,
			FistRadius:        0.2,
		},
		Gesture: GestureConfig{
			Scheme:     "counting",
			BufferSize: 10,
			Confidence: 0.6,
			Cooldown:   Duration(time.Second),
		},
		Voice: VoiceConfig{
			Engine:        "google",
			Locale:        "pt-BR",
			ListenTimeout: Duration(5 * time.Second),
			PhraseLimit:   Duration(10 * time.Second),
			Calibration:   Duration(time.Second),
			Recorder:      []string{"arecord", "-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", "16000"},
			SampleRate:    16000,
			ExitPhrases:   []string{"sair", "voltar", "menu"},
			Commands:      DefaultVoiceCommands(),
		},
		Playback: PlaybackConfig{
			Backend:     "spotify",
			Credentials: filepath.Join(base, "credentials.json"),
			VolumeStep:  10,
			CallTimeout: Duration(5 * time.Second),
			AuthTimeout: Duration(2 * time.Minute),
			PluginDir:   filepath.Join(base, "plugins"),
			Plugin:      "playerctl",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Store:  StoreConfig{Path: filepath.Join(base, "skipspot.db")},
	}
}

// BaseDir returns ~/.skipspot, or ".skipspot" if the home directory is unknown.
func BaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultBaseDir
	}
	return filepath.Join(home, DefaultBaseDir)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(BaseDir(), DefaultConfigFile)
}

// Load reads the config at path, or the default path when path is empty.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Voice.Commands) == 0 {
		cfg.Voice.Commands = DefaultVoiceCommands()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the config back to its path, creating the directory if needed.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Features.Method {
	case "offset", "angle":
	default:
		return fmt.Errorf("features.method must be offset or angle, got %q", c.Features.Method)
	}
	if c.Features.VerticalThreshold <= 0 || c.Features.LateralThreshold <= 0 {
		return errors.New("features thresholds must be positive")
	}
	if c.Features.AngleThreshold <= 0 || c.Features.AngleThreshold >= 180 {
		return fmt.Errorf("features.angle_threshold must be in (0,180), got %v", c.Features.AngleThreshold)
	}

	switch c.Gesture.Scheme {
	case "counting", "pointing":
	default:
		return fmt.Errorf("gesture.scheme must be counting or pointing, got %q", c.Gesture.Scheme)
	}
	if c.Gesture.BufferSize < 1 {
		return fmt.Errorf("gesture.buffer_size must be at least 1, got %d", c.Gesture.BufferSize)
	}
	if c.Gesture.Confidence <= 0 || c.Gesture.Confidence > 1 {
		return fmt.Errorf("gesture.confidence must be in (0,1], got %v", c.Gesture.Confidence)
	}
	if c.Gesture.Cooldown < 0 {
		return errors.New("gesture.cooldown must not be negative")
	}

	switch c.Voice.Engine {
	case "google", "openai":
	default:
		return fmt.Errorf("voice.engine must be google or openai, got %q", c.Voice.Engine)
	}
	if c.Voice.ListenTimeout <= 0 {
		return errors.New("voice.listen_timeout must be positive")
	}
	if len(c.Voice.Recorder) == 0 {
		return errors.New("voice.recorder must name a command")
	}
	if c.Voice.SampleRate <= 0 {
		return fmt.Errorf("voice.sample_rate must be positive, got %d", c.Voice.SampleRate)
	}

	switch c.Playback.Backend {
	case "spotify", "plugin":
	default:
		return fmt.Errorf("playback.backend must be spotify or plugin, got %q", c.Playback.Backend)
	}
	if c.Playback.VolumeStep < 1 || c.Playback.VolumeStep > 100 {
		return fmt.Errorf("playback.volume_step must be in 1..100, got %d", c.Playback.VolumeStep)
	}
	if c.Playback.CallTimeout <= 0 {
		return errors.New("playback.call_timeout must be positive")
	}
	return nil
}
