// Package dispatch applies confirmed actions to the music service.
//
// Both the gesture smoother and the voice matcher feed the same Dispatcher.
// Every call reads the playback state fresh, performs at most one mutating
// call, and reports what happened as an Outcome. Errors never escape as
// Go errors: they become an Outcome status and a recovery decision.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/skipspot/internal/gesture"
	"github.com/ayusman/skipspot/internal/log"
	"github.com/ayusman/skipspot/internal/playback"
)

// Status classifies one dispatch.
type Status string

const (
	Applied          Status = "applied"
	Noop             Status = "noop"
	NoActivePlayback Status = "no_active_playback"
	Unauthenticated  Status = "unauthenticated"
	Forbidden        Status = "forbidden"
	Timeout          Status = "timeout"
	Failed           Status = "failed"
	Invalid          Status = "invalid"
)

// Recovery is what the dispatcher does after a dispatch with a given status.
type Recovery int

const (
	// RecoverNone: nothing went wrong.
	RecoverNone Recovery = iota
	// RecoverReauthorize runs the interactive reauthorization flow. The
	// action is not retried; the next gesture or utterance re-triggers it.
	RecoverReauthorize
	// RecoverReportAndDrop reports the outcome and drops the action.
	RecoverReportAndDrop
)

func (r Recovery) String() string {
	switch r {
	case RecoverNone:
		return "none"
	case RecoverReauthorize:
		return "reauthorize"
	case RecoverReportAndDrop:
		return "report_and_drop"
	}
	return fmt.Sprintf("recovery(%d)", int(r))
}

var policy = map[Status]Recovery{
	Applied:          RecoverNone,
	Noop:             RecoverNone,
	NoActivePlayback: RecoverReportAndDrop,
	Unauthenticated:  RecoverReauthorize,
	Forbidden:        RecoverReportAndDrop,
	Timeout:          RecoverReportAndDrop,
	Failed:           RecoverReportAndDrop,
	Invalid:          RecoverReportAndDrop,
}

// PolicyFor returns the recovery for s. Unknown statuses are dropped.
func PolicyFor(s Status) Recovery {
	if r, ok := policy[s]; ok {
		return r
	}
	return RecoverReportAndDrop
}

// Hints shown to the user alongside a failed outcome.
const (
	HintNoActivePlayback = "open the player on a device and start playing something"
	HintForbidden        = "device must be active, account must be logged in and have Premium"
	HintUnauthenticated  = "authorization expired, complete the login in the browser and repeat the command"
	HintTimeout          = "the music service did not answer in time"
)

// Outcome is the result of one dispatch.
type Outcome struct {
	ID     string        `json:"id"`
	Action gesture.Label `json:"action"`
	Source string        `json:"source,omitempty"`
	Status Status        `json:"status"`
	// Volume is the volume sent by a volume action, -1 otherwise.
	Volume int       `json:"volume"`
	Hint   string    `json:"hint,omitempty"`
	Err    error     `json:"-"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// Recovery returns the policy decision for the outcome's status.
func (o Outcome) Recovery() Recovery {
	return PolicyFor(o.Status)
}

// OK reports whether the outcome left the player in the requested state.
func (o Outcome) OK() bool {
	return o.Status == Applied || o.Status == Noop
}

func (o Outcome) String() string {
	s := fmt.Sprintf("%s: %s", o.Action, o.Status)
	if o.Volume >= 0 {
		s += fmt.Sprintf(" (volume %d%%)", o.Volume)
	}
	if o.Hint != "" {
		s += ": " + o.Hint
	}
	return s
}

// Reauthorizer runs the interactive authorization flow again.
type Reauthorizer interface {
	Reauthorize(ctx context.Context) error
}

// Config tunes the dispatcher.
type Config struct {
	// Step is the volume change per volume action, in percent.
	Step int
	// CallTimeout bounds every remote call.
	CallTimeout time.Duration
}

// DefaultConfig returns a step of 10% and a 5 second call timeout.
func DefaultConfig() Config {
	return Config{Step: 10, CallTimeout: 5 * time.Second}
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithReauthorizer sets the collaborator run on an unauthenticated outcome.
func WithReauthorizer(r Reauthorizer) Option {
	return func(d *Dispatcher) { d.reauth = r }
}

// WithClock replaces time.Now for outcome timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = log.Or(l, "dispatch") }
}

// Dispatcher applies actions to a playback.Client. It is not safe for
// concurrent use; the app runs one recognition loop at a time.
type Dispatcher struct {
	client playback.Client
	config Config
	reauth Reauthorizer
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Dispatcher. Zero config fields take their defaults.
func New(client playback.Client, cfg Config, opts ...Option) *Dispatcher {
	def := DefaultConfig()
	if cfg.Step <= 0 {
		cfg.Step = def.Step
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}

	d := &Dispatcher{
		client: client,
		config: cfg,
		now:    time.Now,
		logger: log.Component("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}

// Dispatch applies action with no source tag.
func (d *Dispatcher) Dispatch(ctx context.Context, action gesture.Label) Outcome {
	return d.DispatchFrom(ctx, "", action)
}

// DispatchFrom applies action and tags the outcome with its source
// ("gesture" or "voice").
func (d *Dispatcher) DispatchFrom(ctx context.Context, source string, action gesture.Label) Outcome {
	out := Outcome{
		ID:     uuid.NewString(),
		Action: action,
		Source: source,
		Volume: -1,
		At:     d.now(),
	}

	d.apply(ctx, &out)
	if out.Err != nil {
		out.Error = out.Err.Error()
	}
	d.report(out)

	if out.Recovery() == RecoverReauthorize && d.reauth != nil {
		if err := d.reauth.Reauthorize(ctx); err != nil {
			d.logger.Error("reauthorization failed", "error", err)
		}
	}
	return out
}

func (d *Dispatcher) apply(ctx context.Context, out *Outcome) {
	if !out.Action.IsAction() {
		out.Status = Invalid
		out.Err = fmt.Errorf("dispatch: %q is not an action", out.Action)
		return
	}

	var state *playback.State
	err := d.call(ctx, func(ctx context.Context) error {
		var err error
		state, err = d.client.State(ctx)
		return err
	})
	if err != nil {
		d.fail(out, err)
		return
	}
	if state == nil || !state.DevicePresent {
		out.Status = NoActivePlayback
		out.Hint = HintNoActivePlayback
		return
	}

	var mutate func(ctx context.Context) error
	switch out.Action {
	case gesture.Skip:
		mutate = d.client.Next
	case gesture.Previous:
		mutate = d.client.Previous
	case gesture.Pause:
		if !state.IsPlaying {
			out.Status = Noop
			return
		}
		mutate = d.client.Pause
	case gesture.Play:
		if state.IsPlaying {
			out.Status = Noop
			return
		}
		mutate = d.client.Resume
	case gesture.VolumeUp, gesture.VolumeDown:
		step := d.config.Step
		if out.Action == gesture.VolumeDown {
			step = -step
		}
		volume := playback.ClampVolume(state.VolumePercent + step)
		out.Volume = volume
		mutate = func(ctx context.Context) error {
			return d.client.SetVolume(ctx, volume)
		}
	}

	if err := d.call(ctx, mutate); err != nil {
		d.fail(out, err)
		return
	}
	out.Status = Applied
}

// call runs fn under the per-call timeout.
func (d *Dispatcher) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.config.CallTimeout)
	defer cancel()
	return fn(ctx)
}

func (d *Dispatcher) fail(out *Outcome, err error) {
	out.Err = err
	switch {
	case errors.Is(err, playback.ErrUnauthenticated):
		out.Status = Unauthenticated
		out.Hint = HintUnauthenticated
	case errors.Is(err, playback.ErrForbidden):
		out.Status = Forbidden
		out.Hint = HintForbidden
	case errors.Is(err, playback.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		out.Status = Timeout
		out.Hint = HintTimeout
	default:
		out.Status = Failed
	}
}

func (d *Dispatcher) report(out Outcome) {
	attrs := []any{"id", out.ID, "action", out.Action, "status", out.Status}
	if out.Source != "" {
		attrs = append(attrs, "source", out.Source)
	}
	if out.Volume >= 0 {
		attrs = append(attrs, "volume", out.Volume)
	}
	if out.Err != nil {
		attrs = append(attrs, "error", out.Err)
	}

	if out.OK() {
		d.logger.Info("action dispatched", attrs...)
		return
	}
	if out.Hint != "" {
		attrs = append(attrs, "hint", out.Hint)
	}
	d.logger.Warn("action not applied", attrs...)
}
