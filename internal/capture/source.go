package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/skipspot/internal/detector"
	"github.com/ayusman/skipspot/internal/log"
)

// ErrStopRequested is returned by HandSource.Next when q or Esc was pressed
// in the preview window.
var ErrStopRequested = errors.New("stop requested from preview window")

// Preview window keys that end the session.
const (
	KeyQ   = 113
	KeyEsc = 27
)

// SourceConfig configures a HandSource.
type SourceConfig struct {
	Preview         bool
	MotionGate      bool
	MotionThreshold float64
	Gate            GateConfig
}

// HandSource reads frames and returns at most one hand per frame.
type HandSource struct {
	camera   Camera
	detector detector.Detector
	gate     *MotionGate
	window   *gocv.Window
	preview  bool
	fps      int
	logger   *slog.Logger
}

// NewHandSource pairs a camera with a landmark detector.
func NewHandSource(camera Camera, det detector.Detector, cfg SourceConfig) *HandSource {
	s := &HandSource{
		camera:   camera,
		detector: det,
		preview:  cfg.Preview,
		logger:   log.Component("capture"),
	}
	if cfg.MotionGate {
		threshold := cfg.MotionThreshold
		if threshold <= 0 {
			threshold = 1.0
		}
		s.gate = NewMotionGate(NewMotionDetector(threshold), cfg.Gate)
	}
	return s
}

// Open starts the camera and, if configured, the preview window.
func (s *HandSource) Open() error {
	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	if s.gate != nil {
		s.camera.SetFPS(s.gate.FPS())
	}
	s.fps = s.camera.FPS()
	if s.preview {
		s.window = gocv.NewWindow("skipspot")
	}
	s.logger.Info("camera opened", "fps", s.fps, "motion_gate", s.gate != nil, "preview", s.preview)
	return nil
}

// Next reads one frame and returns the tracked hand, or nil when the frame
// holds no hand or shows no motion. Detector failures are returned wrapped
// and leave the source usable.
func (s *HandSource) Next(ctx context.Context) (*detector.HandLandmarks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := s.camera.ReadFrame()
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	if s.window != nil {
		s.window.IMShow(*frame)
		if key := s.window.WaitKey(1); key == KeyQ || key == KeyEsc {
			return nil, ErrStopRequested
		}
	}

	if s.gate != nil {
		active, changed := s.gate.Observe(frame)
		if changed {
			s.camera.SetFPS(s.gate.FPS())
			s.fps = s.camera.FPS()
			s.logger.Debug("motion gate changed", "active", active, "fps", s.fps)
		}
		if !active {
			return nil, nil
		}
	}

	hands, err := s.detector.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("detect hands: %w", err)
	}
	return detector.Primary(hands), nil
}

// Interval is the pause between reads at the current frame rate.
func (s *HandSource) Interval() time.Duration {
	fps := s.fps
	if fps <= 0 {
		fps = s.camera.FPS()
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// Close releases the window, the gate and the camera. The detector belongs
// to the caller.
func (s *HandSource) Close() error {
	if s.window != nil {
		s.window.Close()
		s.window = nil
	}
	if s.gate != nil {
		s.gate.Close()
	}
	return s.camera.Close()
}
