package commands

import (
	"context"
	"fmt"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/capture"
	"github.com/ayusman/skipspot/internal/config"
	"github.com/ayusman/skipspot/internal/detector"
	"github.com/ayusman/skipspot/internal/dispatch"
	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/log"
	"github.com/ayusman/skipspot/internal/playback"
	"github.com/ayusman/skipspot/internal/plugin"
	"github.com/ayusman/skipspot/internal/speech"
	"github.com/ayusman/skipspot/internal/store"
	"github.com/ayusman/skipspot/internal/voice"
)

// runtime holds what the recognition modes share: the store, the playback
// backend and the event hub.
type runtime struct {
	cfg    *config.Config
	store  *store.Store
	client playback.Client
	auth   *playback.Authenticator
	hub    *app.Hub
}

// newRuntime opens the store and connects the configured playback backend.
// The Spotify backend verifies the account and authorizes when needed.
func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, store: st, hub: app.NewHub()}

	switch cfg.Playback.Backend {
	case "plugin":
		rt.client, err = newPluginClient(cfg)
	default:
		rt.auth, err = newAuthenticator(ctx, cfg, st)
		if err == nil {
			spotify := playback.NewSpotifyClient(rt.auth.HTTPClient(ctx), playback.DefaultAPIBase)
			var user *playback.User
			if user, err = rt.auth.Verify(ctx, spotify); err == nil {
				log.Info("spotify account verified", "user", user.DisplayName, "product", user.Product)
				rt.client = spotify
			}
		}
	}
	if err != nil {
		st.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) Close() error {
	return rt.store.Close()
}

// dispatcher returns a dispatcher whose plugin requests are tagged with source.
func (rt *runtime) dispatcher(source string) *dispatch.Dispatcher {
	client := rt.client
	if pc, ok := client.(*playback.PluginClient); ok {
		client = pc.WithSource(source)
	}

	var opts []dispatch.Option
	if rt.auth != nil {
		opts = append(opts, dispatch.WithReauthorizer(rt.auth))
	}
	return dispatch.New(client, dispatch.Config{
		Step:        rt.cfg.Playback.VolumeStep,
		CallTimeout: rt.cfg.Playback.CallTimeout.D(),
	}, opts...)
}

// gestureRunner runs the camera pipeline until stopped.
func (rt *runtime) gestureRunner() app.Runner {
	return func(ctx context.Context) error {
		pipeline, err := app.PipelineFromConfig(rt.cfg)
		if err != nil {
			return err
		}
		src, closeSource, err := openHandSource(rt.cfg)
		if err != nil {
			return err
		}
		defer closeSource()

		session := pipeline.NewSession(src, rt.dispatcher(app.GestureSource), app.WithHub(rt.hub))
		return session.Run(ctx)
	}
}

// voiceRunner runs the listen, transcribe and dispatch loop until an exit
// phrase is heard.
func (rt *runtime) voiceRunner() app.Runner {
	return func(ctx context.Context) error {
		transcriber, err := newTranscriber(ctx, rt.cfg)
		if err != nil {
			return err
		}
		loop, err := app.NewVoiceLoop(rt.cfg, newListener(rt.cfg), transcriber, rt.dispatcher(voice.Source), rt.hub)
		if err != nil {
			return err
		}
		return loop.Run(ctx)
	}
}

// newApp registers both recognition modes on a fresh mode switch.
func (rt *runtime) newApp() *app.App {
	a := app.New(rt.hub)
	a.Register(app.ModeGesture, rt.gestureRunner())
	a.Register(app.ModeVoice, rt.voiceRunner())
	return a
}

func newAuthenticator(ctx context.Context, cfg *config.Config, st *store.Store) (*playback.Authenticator, error) {
	creds, err := config.LoadCredentials(cfg.Playback.Credentials)
	if err != nil {
		return nil, err
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, config.ErrMissingCredentials
	}

	auth := playback.NewAuthenticator(playback.AuthConfig{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Store:        st.Settings(),
		Timeout:      cfg.Playback.AuthTimeout.D(),
	})
	if err := auth.Load(ctx); err != nil {
		return nil, err
	}
	return auth, nil
}

func newPluginClient(cfg *config.Config) (*playback.PluginClient, error) {
	mgr := plugin.NewManager(cfg.Playback.PluginDir)
	if err := mgr.Discover(); err != nil {
		return nil, err
	}
	p, err := mgr.Player(cfg.Playback.Plugin)
	if err != nil {
		return nil, err
	}
	return playback.NewPluginClient(plugin.NewExecutor(cfg.Playback.CallTimeout.D()), p, nil), nil
}

// openHandSource starts the detector, camera and optional preview window.
func openHandSource(cfg *config.Config) (*capture.HandSource, func(), error) {
	dcfg := detector.DefaultConfig()
	dcfg.MinConfidence = cfg.Detector.MinDetectionConf
	dcfg.MinTrackingConf = cfg.Detector.MinTrackingConf
	dcfg.Script = cfg.Detector.Script
	dcfg.Python = cfg.Detector.Python

	det, err := detector.NewMediaPipeDetector(dcfg)
	if err != nil {
		return nil, nil, err
	}

	camCfg := capture.DefaultCameraConfig()
	camCfg.DeviceID = cfg.Camera.Device
	camCfg.Mirror = cfg.Camera.Mirror

	src := capture.NewHandSource(capture.NewCamera(camCfg), det, capture.SourceConfig{
		Preview:         cfg.Camera.Preview,
		MotionGate:      cfg.Camera.MotionGate,
		MotionThreshold: cfg.Camera.MotionThreshold,
		Gate:            capture.DefaultGateConfig(),
	})
	if err := src.Open(); err != nil {
		det.Close()
		return nil, nil, err
	}

	return src, func() {
		src.Close()
		det.Close()
	}, nil
}

func newListener(cfg *config.Config) *speech.CommandListener {
	lcfg := speech.DefaultListenerConfig()
	lcfg.SampleRate = cfg.Voice.SampleRate
	lcfg.Calibration = cfg.Voice.Calibration.D()
	lcfg.PhraseLimit = cfg.Voice.PhraseLimit.D()
	return speech.NewCommandListener(cfg.Voice.Recorder, lcfg)
}

// newTranscriber picks the speech engine. API keys come from the environment.
func newTranscriber(ctx context.Context, cfg *config.Config) (speech.Transcriber, error) {
	switch cfg.Voice.Engine {
	case "openai":
		return speech.NewOpenAITranscriber("")
	case "google":
		return speech.NewGoogleTranscriber(ctx, "")
	default:
		return nil, fmt.Errorf("unknown speech engine %q", cfg.Voice.Engine)
	}
}

// newTrainer builds the reference inspector from the configured pipeline.
func newTrainer(cfg *config.Config) (*gesture.Trainer, error) {
	pipeline, err := app.PipelineFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return gesture.NewTrainer(pipeline.Extractor, pipeline.Classifier), nil
}
