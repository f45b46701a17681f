// Package gesture turns per-frame finger states into confirmed playback
// gestures: a rule-table classifier per frame and a majority-vote smoother
// with a cooldown across frames. It also averages captured reference poses
// into templates for inspection.
package gesture

import "fmt"

// Label is a per-frame or confirmed gesture. Every label except None is also
// a playback action.
type Label string

const (
	Play       Label = "play"
	Pause      Label = "pause"
	Skip       Label = "skip"
	Previous   Label = "previous"
	VolumeUp   Label = "volume_up"
	VolumeDown Label = "volume_down"
	None       Label = "none"
)

// Actions lists every actionable label.
var Actions = []Label{Play, Pause, Skip, Previous, VolumeUp, VolumeDown}

// IsAction reports whether l names a playback action.
func (l Label) IsAction() bool {
	switch l {
	case Play, Pause, Skip, Previous, VolumeUp, VolumeDown:
		return true
	}
	return false
}

func (l Label) String() string {
	return string(l)
}

// ParseLabel accepts any label name, including "none".
func ParseLabel(s string) (Label, error) {
	l := Label(s)
	if l == None || l.IsAction() {
		return l, nil
	}
	return None, fmt.Errorf("gesture: unknown label %q", s)
}
