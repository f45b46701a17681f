// Package tray provides the system tray mode switch: idle, gesture or voice
// control, plus the last dispatched action.
package tray

import (
	"context"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/skipspot/internal/app"
)

// Tray represents the system tray application.
type Tray struct {
	onMode func(mode app.Mode)
	onQuit func()
	mode   app.Mode
	last   string
	mu     sync.RWMutex

	menuModes      map[app.Mode]*systray.MenuItem
	menuLastAction *systray.MenuItem
}

// New creates a tray showing the idle mode.
func New() *Tray {
	return &Tray{mode: app.ModeIdle}
}

// OnMode sets the callback run when a mode item is clicked.
func (t *Tray) OnMode(fn func(mode app.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnQuit sets the callback run when quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("skipspot")
	systray.SetTooltip("skipspot: gesture and voice music control")

	t.mu.Lock()
	t.menuModes = map[app.Mode]*systray.MenuItem{
		app.ModeIdle:    systray.AddMenuItem(modeTitle(app.ModeIdle, t.mode), "Stop recognition"),
		app.ModeGesture: systray.AddMenuItem(modeTitle(app.ModeGesture, t.mode), "Control playback with hand gestures"),
		app.ModeVoice:   systray.AddMenuItem(modeTitle(app.ModeVoice, t.mode), "Control playback with voice commands"),
	}
	systray.AddSeparator()
	t.menuLastAction = systray.AddMenuItem(lastTitle(t.last), "Last dispatched action")
	t.menuLastAction.Disable()
	modes := t.menuModes
	t.mu.Unlock()

	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit skipspot")

	go func() {
		for {
			select {
			case <-modes[app.ModeIdle].ClickedCh:
				t.handleMode(app.ModeIdle)
			case <-modes[app.ModeGesture].ClickedCh:
				t.handleMode(app.ModeGesture)
			case <-modes[app.ModeVoice].ClickedCh:
				t.handleMode(app.ModeVoice)
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleMode(mode app.Mode) {
	t.mu.RLock()
	callback := t.onMode
	t.mu.RUnlock()

	if callback != nil {
		callback(mode)
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetMode marks mode as the active one in the menu.
func (t *Tray) SetMode(mode app.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = mode
	for m, item := range t.menuModes {
		item.SetTitle(modeTitle(m, mode))
	}
}

// SetLastAction updates the last action line.
func (t *Tray) SetLastAction(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = text
	if t.menuLastAction != nil {
		t.menuLastAction.SetTitle(lastTitle(text))
	}
}

// Mode returns the mode the menu shows as active.
func (t *Tray) Mode() app.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// LastAction returns the text of the last action line.
func (t *Tray) LastAction() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Follow mirrors mode changes and outcomes from hub until ctx ends.
func (t *Tray) Follow(ctx context.Context, hub *app.Hub) {
	events, unsubscribe := hub.Subscribe(16)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.apply(ev)
		}
	}
}

func (t *Tray) apply(ev app.Event) {
	switch ev.Type {
	case app.EventMode:
		t.SetMode(ev.Mode)
	case app.EventOutcome:
		if ev.Outcome != nil {
			t.SetLastAction(ev.Outcome.String())
		}
	}
}

func modeTitle(m, active app.Mode) string {
	names := map[app.Mode]string{
		app.ModeIdle:    "Idle",
		app.ModeGesture: "Gesture control",
		app.ModeVoice:   "Voice control",
	}
	if m == active {
		return "● " + names[m]
	}
	return "○ " + names[m]
}

func lastTitle(text string) string {
	if text == "" {
		return "Last: none"
	}
	return "Last: " + text
}
