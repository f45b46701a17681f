package gesture

import "time"

// confidenceEpsilon absorbs float error in count/size comparisons, so 6/10
// meets a 0.6 threshold.
const confidenceEpsilon = 1e-9

// SmootherConfig tunes the vote window and the cooldown.
type SmootherConfig struct {
	// Size is the number of concrete labels the vote needs.
	Size int
	// Confidence is the share of the window the winning label must hold.
	Confidence float64
	// Cooldown is the wall-clock quiet period after a confirmation.
	Cooldown time.Duration
}

// DefaultSmootherConfig returns a 10-label window, 60% confidence and a one
// second cooldown.
func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfig{
		Size:       10,
		Confidence: 0.6,
		Cooldown:   time.Second,
	}
}

// Smoother debounces per-frame labels into confirmed gestures. It is owned by
// one recognition loop and is not safe for concurrent use.
type Smoother struct {
	config   SmootherConfig
	buffer   []Label
	cooldown time.Duration
}

// NewSmoother creates a Smoother. A size below 1 is raised to 1.
func NewSmoother(config SmootherConfig) *Smoother {
	if config.Size < 1 {
		config.Size = 1
	}
	return &Smoother{
		config: config,
		buffer: make([]Label, 0, config.Size),
	}
}

// Step feeds one frame's label and the wall-clock time since the previous
// step. It returns the confirmed label and true at most once per cooldown.
//
// While cooling down the observation is ignored and the remaining cooldown
// shrinks by elapsed. None never enters the buffer. Once the buffer is full
// the majority label is confirmed if it holds Confidence of the window;
// otherwise only the oldest label is dropped and the window slides on.
func (s *Smoother) Step(label Label, elapsed time.Duration) (Label, bool) {
	if s.cooldown > 0 {
		if elapsed > 0 {
			s.cooldown -= elapsed
		}
		if s.cooldown < 0 {
			s.cooldown = 0
		}
		return None, false
	}

	if !label.IsAction() {
		return None, false
	}

	s.buffer = append(s.buffer, label)
	if len(s.buffer) > s.config.Size {
		s.evictOldest()
	}
	if len(s.buffer) < s.config.Size {
		return None, false
	}

	winner, count := majority(s.buffer)
	if float64(count)/float64(s.config.Size)+confidenceEpsilon >= s.config.Confidence {
		s.buffer = s.buffer[:0]
		s.cooldown = s.config.Cooldown
		return winner, true
	}

	s.evictOldest()
	return None, false
}

// Reset empties the buffer and cancels any cooldown.
func (s *Smoother) Reset() {
	s.buffer = s.buffer[:0]
	s.cooldown = 0
}

// Len returns the number of buffered labels.
func (s *Smoother) Len() int {
	return len(s.buffer)
}

// Buffered returns a copy of the buffered labels, oldest first.
func (s *Smoother) Buffered() []Label {
	return append([]Label(nil), s.buffer...)
}

// CooldownRemaining returns how long new observations are still ignored.
func (s *Smoother) CooldownRemaining() time.Duration {
	return s.cooldown
}

// Config returns the active configuration.
func (s *Smoother) Config() SmootherConfig {
	return s.config
}

func (s *Smoother) evictOldest() {
	copy(s.buffer, s.buffer[1:])
	s.buffer = s.buffer[:len(s.buffer)-1]
}

// majority returns the most frequent label. Ties go to the label seen first.
func majority(labels []Label) (Label, int) {
	counts := make(map[Label]int, len(Actions))
	best, bestCount := None, 0
	for _, l := range labels {
		counts[l]++
	}
	for _, l := range labels {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best, bestCount
}
