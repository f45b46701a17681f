package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/ayusman/skipspot/internal/log"
)

// Source opens a raw PCM stream (signed 16-bit little-endian mono).
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// CommandSource reads PCM from the stdout of a recorder process such as
// arecord or sox. The process is started per Open and killed on Close.
type CommandSource struct {
	Args []string
}

// Open starts the recorder.
func (s CommandSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if len(s.Args) == 0 {
		return nil, errors.New("no recorder command")
	}
	cmd := exec.CommandContext(ctx, s.Args[0], s.Args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &recorder{cmd: cmd, stdout: stdout}, nil
}

type recorder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (r *recorder) Read(p []byte) (int, error) { return r.stdout.Read(p) }

func (r *recorder) Close() error {
	if r.cmd.Process != nil {
		r.cmd.Process.Kill()
	}
	r.cmd.Wait()
	return nil
}

// ListenerConfig tunes utterance capture.
type ListenerConfig struct {
	SampleRate    int
	FrameDuration time.Duration
	// Calibration is how much audio is sampled before each listen to measure
	// the noise floor. Zero skips calibration.
	Calibration time.Duration
	// NoiseFactor multiplies the noise floor to get the speech threshold.
	NoiseFactor float64
	// PhraseLimit caps the length of one utterance. Zero means no cap.
	PhraseLimit time.Duration
}

// DefaultListenerConfig matches the default arecord invocation.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		SampleRate:    16000,
		FrameDuration: 20 * time.Millisecond,
		Calibration:   time.Second,
		NoiseFactor:   3,
		PhraseLimit:   10 * time.Second,
	}
}

// CommandListener implements Listener over a Source.
type CommandListener struct {
	source Source
	config ListenerConfig
	logger *slog.Logger
}

// NewListener creates a listener reading from source.
func NewListener(source Source, cfg ListenerConfig) *CommandListener {
	def := DefaultListenerConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.FrameDuration <= 0 {
		cfg.FrameDuration = def.FrameDuration
	}
	if cfg.NoiseFactor <= 0 {
		cfg.NoiseFactor = def.NoiseFactor
	}
	return &CommandListener{
		source: source,
		config: cfg,
		logger: log.Component("listener"),
	}
}

// NewCommandListener creates a listener that runs the recorder in args.
func NewCommandListener(args []string, cfg ListenerConfig) *CommandListener {
	return NewListener(CommandSource{Args: args}, cfg)
}

// Listen calibrates against ambient noise, then waits up to timeout of audio
// for speech to start and records until speech ends or the phrase limit is hit.
func (l *CommandListener) Listen(ctx context.Context, timeout time.Duration) (*Clip, error) {
	stream, err := l.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecorder, err)
	}
	defer stream.Close()

	frameSamples := int(int64(l.config.SampleRate) * int64(l.config.FrameDuration) / int64(time.Second))
	if frameSamples < 1 {
		frameSamples = 1
	}
	raw := make([]byte, frameSamples*2)
	samples := make([]int16, frameSamples)

	read := func() error {
		if _, err := io.ReadFull(stream, raw); err != nil {
			return err
		}
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
		}
		return nil
	}

	vad := NewVAD()

	if calFrames := int(l.config.Calibration / l.config.FrameDuration); calFrames > 0 {
		var total float64
		n := 0
		for ; n < calFrames; n++ {
			if err := read(); err != nil {
				return nil, l.readError(ctx, err)
			}
			total += RMS(samples)
		}
		floor := total / float64(n)
		vad.Calibrate(floor, l.config.NoiseFactor)
		l.logger.Debug("calibrated", "noise_floor", floor, "speech_threshold", vad.SpeechThreshold)
	}

	waitFrames := int(timeout / l.config.FrameDuration)
	limitFrames := int(l.config.PhraseLimit / l.config.FrameDuration)

	var (
		preroll [][]byte
		pcm     bytes.Buffer
		started bool
		frames  int
	)

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := read(); err != nil {
			if started && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
				break
			}
			return nil, l.readError(ctx, err)
		}
		speaking := vad.Process(samples)

		if !started {
			preroll = append(preroll, append([]byte(nil), raw...))
			if len(preroll) > vad.SpeechFrames {
				preroll = preroll[1:]
			}
			if speaking {
				started = true
				for _, f := range preroll {
					pcm.Write(f)
				}
				frames = len(preroll)
				continue
			}
			if waitFrames > 0 && i+1 >= waitFrames {
				return nil, ErrTimeout
			}
			continue
		}

		pcm.Write(raw)
		frames++
		if !speaking {
			break
		}
		if limitFrames > 0 && frames >= limitFrames {
			l.logger.Debug("phrase limit reached", "limit", l.config.PhraseLimit)
			break
		}
	}

	return &Clip{PCM: pcm.Bytes(), SampleRate: l.config.SampleRate}, nil
}

// readError maps a failed read. A stream that ends before speech starts is
// treated as silence.
func (l *CommandListener) readError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTimeout
	}
	return fmt.Errorf("speech: read audio: %w", err)
}
