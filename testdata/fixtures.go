// Package testdata holds recorded hand landmark sequences for tests. Each
// file under landmarks/ stores the detector's per-frame output for one pose
// together with the label each gesture scheme should give it under the
// default offset features.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/skipspot/internal/detector"
)

//go:embed landmarks/*.json
var landmarksFS embed.FS

// Recording is one recorded pose.
type Recording struct {
	Name string
	// Expect maps a gesture scheme ("counting", "pointing") to a label name.
	Expect map[string]string
	// Frames holds the detected hands per frame; an empty frame had no hand.
	Frames [][]detector.HandLandmarks
}

type wireHand struct {
	Points     []detector.Point3D `json:"points"`
	Handedness string             `json:"handedness"`
	Score      float64            `json:"score"`
}

type wireRecording struct {
	Name   string            `json:"name"`
	Expect map[string]string `json:"expect"`
	Frames []struct {
		Hands []wireHand `json:"hands"`
	} `json:"frames"`
}

// Load reads the recording with the given name, e.g. "thumbs_up".
func Load(name string) (*Recording, error) {
	data, err := landmarksFS.ReadFile("landmarks/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load recording %s: %w", name, err)
	}

	var wire wireRecording
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode recording %s: %w", name, err)
	}

	rec := &Recording{Name: wire.Name, Expect: wire.Expect}
	for i, f := range wire.Frames {
		hands := make([]detector.HandLandmarks, 0, len(f.Hands))
		for _, h := range f.Hands {
			if len(h.Points) != detector.NumLandmarks {
				return nil, fmt.Errorf("recording %s frame %d: %d points, want %d", name, i, len(h.Points), detector.NumLandmarks)
			}
			lm := detector.HandLandmarks{Handedness: h.Handedness, Score: h.Score}
			copy(lm.Points[:], h.Points)
			hands = append(hands, lm)
		}
		rec.Frames = append(rec.Frames, hands)
	}
	return rec, nil
}

// Names lists the available recordings in alphabetical order.
func Names() []string {
	entries, err := landmarksFS.ReadDir("landmarks")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Hands returns the primary hand of every frame, nil where no hand was seen.
func (r *Recording) Hands() []*detector.HandLandmarks {
	out := make([]*detector.HandLandmarks, len(r.Frames))
	for i, hands := range r.Frames {
		out[i] = detector.Primary(hands)
	}
	return out
}
