package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"runtime"
	"testing"
	"time"
)

const (
	testRate         = 16000
	testFrameSamples = 320 // 20ms at 16kHz
)

// pcmBuilder assembles a synthetic recording frame by frame.
type pcmBuilder struct {
	buf bytes.Buffer
}

func (b *pcmBuilder) constant(frames int, amplitude float64) *pcmBuilder {
	v := int16(amplitude * 32767)
	for i := 0; i < frames*testFrameSamples; i++ {
		binary.Write(&b.buf, binary.LittleEndian, v)
	}
	return b
}

func (b *pcmBuilder) silence(frames int) *pcmBuilder {
	return b.constant(frames, 0)
}

func (b *pcmBuilder) tone(frames int, amplitude float64) *pcmBuilder {
	for i := 0; i < frames*testFrameSamples; i++ {
		s := amplitude * math.Sin(2*math.Pi*440*float64(i)/testRate)
		binary.Write(&b.buf, binary.LittleEndian, int16(s*32767))
	}
	return b
}

func (b *pcmBuilder) bytes() []byte { return b.buf.Bytes() }

type bufferSource struct {
	data []byte
	err  error
}

func (s bufferSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func testListenerConfig() ListenerConfig {
	return ListenerConfig{
		SampleRate:    testRate,
		FrameDuration: 20 * time.Millisecond,
		Calibration:   time.Second,
		NoiseFactor:   3,
		PhraseLimit:   10 * time.Second,
	}
}

func TestCommandListener_Utterance(t *testing.T) {
	audio := new(pcmBuilder).
		silence(50). // calibration
		silence(10).
		tone(30, 0.3).
		silence(60).
		bytes()

	l := NewListener(bufferSource{data: audio}, testListenerConfig())
	clip, err := l.Listen(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	// 3 frames of pre-roll, the remaining 27 loud frames, then the 40 quiet
	// frames it takes to decide speech ended
	if got, want := clip.Duration(), 1400*time.Millisecond; got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}
	if clip.SampleRate != testRate {
		t.Errorf("SampleRate = %d, want %d", clip.SampleRate, testRate)
	}
}

func TestCommandListener_Timeout(t *testing.T) {
	audio := new(pcmBuilder).silence(50 + 200).bytes()

	l := NewListener(bufferSource{data: audio}, testListenerConfig())
	_, err := l.Listen(context.Background(), 200*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Listen() error = %v, want ErrTimeout", err)
	}
}

func TestCommandListener_StreamEndsBeforeSpeech(t *testing.T) {
	audio := new(pcmBuilder).silence(55).bytes()

	l := NewListener(bufferSource{data: audio}, testListenerConfig())
	_, err := l.Listen(context.Background(), 5*time.Second)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Listen() error = %v, want ErrTimeout", err)
	}
}

func TestCommandListener_StreamEndsDuringSpeech(t *testing.T) {
	audio := new(pcmBuilder).silence(50).tone(20, 0.3).bytes()

	l := NewListener(bufferSource{data: audio}, testListenerConfig())
	clip, err := l.Listen(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if got, want := clip.Duration(), 400*time.Millisecond; got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}
}

func TestCommandListener_PhraseLimit(t *testing.T) {
	audio := new(pcmBuilder).silence(50).tone(200, 0.3).bytes()

	cfg := testListenerConfig()
	cfg.PhraseLimit = 500 * time.Millisecond
	l := NewListener(bufferSource{data: audio}, cfg)

	clip, err := l.Listen(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if got := clip.Duration(); got != cfg.PhraseLimit {
		t.Errorf("Duration() = %v, want %v", got, cfg.PhraseLimit)
	}
}

func TestCommandListener_Calibration(t *testing.T) {
	// a steady hum louder than the default speech threshold
	hum := func() []byte { return new(pcmBuilder).constant(50+100, 0.02).bytes() }

	t.Run("calibrated hum is not speech", func(t *testing.T) {
		l := NewListener(bufferSource{data: hum()}, testListenerConfig())
		_, err := l.Listen(context.Background(), time.Second)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("Listen() error = %v, want ErrTimeout", err)
		}
	})

	t.Run("uncalibrated hum triggers", func(t *testing.T) {
		cfg := testListenerConfig()
		cfg.Calibration = 0
		cfg.PhraseLimit = 200 * time.Millisecond
		l := NewListener(bufferSource{data: hum()}, cfg)

		if _, err := l.Listen(context.Background(), time.Second); err != nil {
			t.Fatalf("Listen() error = %v", err)
		}
	})
}

func TestCommandListener_RecorderFailure(t *testing.T) {
	l := NewListener(bufferSource{err: errors.New("no such device")}, testListenerConfig())
	_, err := l.Listen(context.Background(), time.Second)
	if !errors.Is(err, ErrRecorder) {
		t.Fatalf("Listen() error = %v, want ErrRecorder", err)
	}
	if IsRecoverable(err) {
		t.Error("recorder failure reported as recoverable")
	}
}

func TestCommandListener_Cancelled(t *testing.T) {
	audio := new(pcmBuilder).silence(500).bytes()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewListener(bufferSource{data: audio}, testListenerConfig())
	_, err := l.Listen(ctx, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Listen() error = %v, want context.Canceled", err)
	}
}

func TestCommandSource(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	t.Run("reads recorder output", func(t *testing.T) {
		// 1.5s of zeros: calibration plus a short silent wait
		l := NewCommandListener([]string{"head", "-c", "48000", "/dev/zero"}, testListenerConfig())
		_, err := l.Listen(context.Background(), 200*time.Millisecond)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("Listen() error = %v, want ErrTimeout", err)
		}
	})

	t.Run("missing recorder", func(t *testing.T) {
		l := NewCommandListener([]string{"/nonexistent/recorder"}, testListenerConfig())
		_, err := l.Listen(context.Background(), time.Second)
		if !errors.Is(err, ErrRecorder) {
			t.Fatalf("Listen() error = %v, want ErrRecorder", err)
		}
	})
}
