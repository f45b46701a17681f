package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// GaussianBlurSize is the kernel size used to smooth frames before differencing.
	GaussianBlurSize = 21
	// DiffThreshold is the per-pixel intensity change counted as motion.
	DiffThreshold = 25
)

// MotionDetector compares each frame against the previous one and reports
// the share of pixels that changed.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a detector that fires when more than threshold
// percent of the pixels changed.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect returns whether frame differs from the previous frame and the
// changed-pixel percentage. The first frame only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0
	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold changes the changed-pixel percentage. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}

// GateConfig sets the frame rates of the motion gate.
type GateConfig struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
}

// DefaultGateConfig samples at 5 FPS while idle and 15 FPS while active, and
// goes idle after 2 seconds without motion.
func DefaultGateConfig() GateConfig {
	return GateConfig{IdleFPS: 5, ActiveFPS: 15, IdleTimeout: 2 * time.Second}
}

// MotionGate tracks whether the scene is active. Frames seen while idle are
// not worth running hand detection on.
type MotionGate struct {
	detector   *MotionDetector
	config     GateConfig
	active     bool
	lastMotion time.Time
	now        func() time.Time
}

// NewMotionGate starts idle. Zero config fields take their defaults.
func NewMotionGate(detector *MotionDetector, cfg GateConfig) *MotionGate {
	def := DefaultGateConfig()
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = def.IdleFPS
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = def.ActiveFPS
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	return &MotionGate{detector: detector, config: cfg, now: time.Now}
}

// Observe runs motion detection on frame and updates the gate.
func (g *MotionGate) Observe(frame *gocv.Mat) (active, changed bool) {
	motion, _ := g.detector.Detect(frame)
	return g.Update(motion, g.now())
}

// Update feeds one motion reading taken at now. It returns whether the gate
// is active and whether that differs from before the call.
func (g *MotionGate) Update(motion bool, now time.Time) (active, changed bool) {
	was := g.active
	switch {
	case motion:
		g.lastMotion = now
		g.active = true
	case g.active && now.Sub(g.lastMotion) > g.config.IdleTimeout:
		g.active = false
	}
	return g.active, g.active != was
}

// Active reports the current state.
func (g *MotionGate) Active() bool { return g.active }

// FPS returns the capture rate for the current state.
func (g *MotionGate) FPS() int {
	if g.active {
		return g.config.ActiveFPS
	}
	return g.config.IdleFPS
}

// Close releases the underlying detector.
func (g *MotionGate) Close() {
	g.detector.Close()
}
