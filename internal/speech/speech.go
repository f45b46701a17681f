// Package speech records one utterance at a time from the microphone and
// turns it into text. A Listener captures a Clip, a Transcriber converts
// it; both report the recoverable failure kinds as typed errors.
package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout means nobody spoke before the listen timeout.
	ErrTimeout = errors.New("speech: timed out waiting for speech")
	// ErrUnintelligible means the engine heard audio but produced no text.
	ErrUnintelligible = errors.New("speech: could not understand audio")
	// ErrRecorder means the audio recorder could not be started at all.
	ErrRecorder = errors.New("speech: recorder unavailable")
)

// ServiceError is a transport or service failure of a transcription engine.
type ServiceError struct {
	Engine     string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("speech: %s service error (%d): %v", e.Engine, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("speech: %s service error: %v", e.Engine, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsRecoverable reports whether a voice session should keep listening after err.
func IsRecoverable(err error) bool {
	var svc *ServiceError
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnintelligible) || errors.As(err, &svc)
}

// Clip is one recorded utterance: signed 16-bit little-endian mono PCM.
type Clip struct {
	PCM        []byte
	SampleRate int
}

// Duration is the length of the audio in the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	samples := len(c.PCM) / 2
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// WAV wraps the PCM in a canonical 44-byte RIFF header.
func (c *Clip) WAV() []byte {
	var buf bytes.Buffer
	dataSize := len(c.PCM)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(c.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(c.SampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(c.PCM)
	return buf.Bytes()
}

// Listener captures the next utterance. It returns ErrTimeout when no speech
// starts within timeout.
type Listener interface {
	Listen(ctx context.Context, timeout time.Duration) (*Clip, error)
}

// Transcriber converts a clip to text in the given locale (for example
// "pt-BR"). It returns ErrUnintelligible or a *ServiceError on failure.
type Transcriber interface {
	Transcribe(ctx context.Context, clip *Clip, locale string) (string, error)
}
