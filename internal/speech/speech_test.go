package speech

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestClip(t *testing.T) {
	clip := &Clip{PCM: make([]byte, 32000), SampleRate: 16000}

	if got := clip.Duration(); got != time.Second {
		t.Errorf("Duration() = %v, want 1s", got)
	}

	wav := clip.WAV()
	if len(wav) != 44+32000 {
		t.Fatalf("len(WAV()) = %d, want %d", len(wav), 44+32000)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Errorf("bad header: %q", wav[:44])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != 32000 {
		t.Errorf("data size = %d, want 32000", size)
	}

	if (&Clip{PCM: []byte{1, 2}}).Duration() != 0 {
		t.Error("Duration() without a sample rate should be 0")
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrTimeout, true},
		{fmt.Errorf("listen: %w", ErrTimeout), true},
		{ErrUnintelligible, true},
		{&ServiceError{Engine: "google", StatusCode: 503, Err: errors.New("unavailable")}, true},
		{fmt.Errorf("wrapped: %w", &ServiceError{Engine: "openai", Err: errors.New("reset")}), true},
		{ErrRecorder, false},
		{errors.New("disk on fire"), false},
	}
	for _, tt := range tests {
		if got := IsRecoverable(tt.err); got != tt.want {
			t.Errorf("IsRecoverable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestServiceError(t *testing.T) {
	inner := errors.New("quota exceeded")
	err := &ServiceError{Engine: "google", StatusCode: 429, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("ServiceError does not unwrap")
	}
	if got := err.Error(); got != "speech: google service error (429): quota exceeded" {
		t.Errorf("Error() = %q", got)
	}
}

func TestVAD(t *testing.T) {
	loud := make([]int16, 320)
	for i := range loud {
		loud[i] = 8000
	}
	quiet := make([]int16, 320)

	t.Run("needs consecutive loud frames", func(t *testing.T) {
		v := NewVAD()
		if v.Process(loud) || v.Process(loud) {
			t.Fatal("speech started before SpeechFrames loud frames")
		}
		if !v.Process(loud) {
			t.Fatal("speech not started after SpeechFrames loud frames")
		}
	})

	t.Run("a quiet frame resets the start count", func(t *testing.T) {
		v := NewVAD()
		v.Process(loud)
		v.Process(loud)
		v.Process(quiet)
		v.Process(loud)
		if v.Process(loud) {
			t.Fatal("speech started without consecutive loud frames")
		}
	})

	t.Run("hangover before silence", func(t *testing.T) {
		v := NewVAD()
		for i := 0; i < 3; i++ {
			v.Process(loud)
		}
		for i := 0; i < v.SilenceFrames-1; i++ {
			if !v.Process(quiet) {
				t.Fatalf("speech ended after %d quiet frames", i+1)
			}
		}
		if v.Process(quiet) {
			t.Fatal("speech did not end after SilenceFrames quiet frames")
		}
	})

	t.Run("reset", func(t *testing.T) {
		v := NewVAD()
		for i := 0; i < 3; i++ {
			v.Process(loud)
		}
		v.Reset()
		if v.InSpeech() {
			t.Fatal("InSpeech() after Reset")
		}
	})

	t.Run("calibrate", func(t *testing.T) {
		v := NewVAD()
		v.Calibrate(0.001, 3)
		if v.SpeechThreshold != 0.015 || v.SilenceThreshold != 0.008 {
			t.Errorf("low noise floor changed thresholds: %v/%v", v.SpeechThreshold, v.SilenceThreshold)
		}

		v.Calibrate(0.02, 3)
		if v.SpeechThreshold < 0.059 || v.SpeechThreshold > 0.061 {
			t.Errorf("SpeechThreshold = %v, want 0.06", v.SpeechThreshold)
		}
		if v.SilenceThreshold >= v.SpeechThreshold {
			t.Errorf("SilenceThreshold %v not below SpeechThreshold %v", v.SilenceThreshold, v.SpeechThreshold)
		}
	})
}

func TestRMS(t *testing.T) {
	if RMS(nil) != 0 {
		t.Error("RMS(nil) != 0")
	}
	frame := []int16{16384, -16384, 16384, -16384}
	if got := RMS(frame); got != 0.5 {
		t.Errorf("RMS() = %v, want 0.5", got)
	}
}
