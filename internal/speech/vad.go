package speech

import "math"

// VAD is an energy based voice activity detector. Hysteresis between the
// speech and silence thresholds keeps it from flickering.
type VAD struct {
	SpeechThreshold  float64 // RMS level to start speech
	SilenceThreshold float64 // RMS level to end speech
	SpeechFrames     int     // consecutive loud frames needed to start
	SilenceFrames    int     // consecutive quiet frames needed to end

	inSpeech     bool
	speechCount  int
	silenceCount int
}

// NewVAD returns a detector tuned for 20ms frames.
func NewVAD() *VAD {
	return &VAD{
		SpeechThreshold:  0.015,
		SilenceThreshold: 0.008,
		SpeechFrames:     3,
		SilenceFrames:    40,
	}
}

// Calibrate raises both thresholds above a measured noise floor.
func (v *VAD) Calibrate(noiseFloor, factor float64) {
	if factor <= 0 {
		factor = 3
	}
	if s := noiseFloor * factor; s > v.SpeechThreshold {
		v.SpeechThreshold = s
	}
	if s := noiseFloor * factor / 2; s > v.SilenceThreshold {
		v.SilenceThreshold = s
	}
	if v.SilenceThreshold >= v.SpeechThreshold {
		v.SilenceThreshold = v.SpeechThreshold / 2
	}
}

// Process feeds one frame and reports whether the detector is inside speech.
func (v *VAD) Process(frame []int16) bool {
	level := RMS(frame)

	if v.inSpeech {
		if level < v.SilenceThreshold {
			v.silenceCount++
			if v.silenceCount >= v.SilenceFrames {
				v.inSpeech = false
				v.silenceCount = 0
			}
		} else {
			v.silenceCount = 0
		}
		return v.inSpeech
	}

	if level >= v.SpeechThreshold {
		v.speechCount++
		if v.speechCount >= v.SpeechFrames {
			v.inSpeech = true
			v.speechCount = 0
		}
	} else {
		v.speechCount = 0
	}
	return v.inSpeech
}

// InSpeech reports the current state.
func (v *VAD) InSpeech() bool { return v.inSpeech }

// Reset clears the state but keeps the thresholds.
func (v *VAD) Reset() {
	v.inSpeech = false
	v.speechCount = 0
	v.silenceCount = 0
}

// RMS is the root mean square of frame normalized to 0..1.
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		f := float64(s) / 32768
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(frame)))
}
