// Package voice maps transcripts to playback actions and runs the
// listen, transcribe, match and dispatch loop of a voice session.
package voice

import (
	"fmt"
	"strings"

	"github.com/ayusman/skipspot/internal/config"
	"github.com/ayusman/skipspot/internal/gesture"
)

// Kind classifies a matched transcript.
type Kind int

const (
	Unrecognized Kind = iota
	Action
	Exit
)

func (k Kind) String() string {
	switch k {
	case Action:
		return "action"
	case Exit:
		return "exit"
	}
	return "unrecognized"
}

// Result is the outcome of matching one transcript.
type Result struct {
	Kind    Kind
	Action  gesture.Label
	Trigger string
}

// Command binds an action to the phrases that trigger it.
type Command struct {
	Action   gesture.Label
	Triggers []string
}

// Matcher resolves transcripts against exit phrases and an ordered command
// table. The first command with a trigger contained in the transcript wins.
type Matcher struct {
	exit     map[string]bool
	commands []Command
}

// NewMatcher creates a matcher. Phrases are lowercased and trimmed.
func NewMatcher(exitPhrases []string, commands []Command) *Matcher {
	m := &Matcher{exit: make(map[string]bool)}
	for _, p := range exitPhrases {
		if p = Normalize(p); p != "" {
			m.exit[p] = true
		}
	}
	for _, c := range commands {
		cmd := Command{Action: c.Action}
		for _, t := range c.Triggers {
			if t = Normalize(t); t != "" {
				cmd.Triggers = append(cmd.Triggers, t)
			}
		}
		m.commands = append(m.commands, cmd)
	}
	return m
}

// MatcherFromConfig builds a matcher from the voice section of the config.
func MatcherFromConfig(cfg config.VoiceConfig) (*Matcher, error) {
	commands := make([]Command, 0, len(cfg.Commands))
	for _, c := range cfg.Commands {
		label, err := gesture.ParseLabel(c.Action)
		if err != nil || !label.IsAction() {
			return nil, fmt.Errorf("voice: command %q is not an action", c.Action)
		}
		commands = append(commands, Command{Action: label, Triggers: c.Triggers})
	}
	return NewMatcher(cfg.ExitPhrases, commands), nil
}

// Normalize lowercases and trims a transcript.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Match resolves one transcript. Exit phrases must match the whole
// transcript; triggers match as substrings.
func (m *Matcher) Match(transcript string) Result {
	text := Normalize(transcript)
	if text == "" {
		return Result{Kind: Unrecognized, Action: gesture.None}
	}
	if m.exit[text] {
		return Result{Kind: Exit, Action: gesture.None, Trigger: text}
	}
	for _, c := range m.commands {
		for _, t := range c.Triggers {
			if strings.Contains(text, t) {
				return Result{Kind: Action, Action: c.Action, Trigger: t}
			}
		}
	}
	return Result{Kind: Unrecognized, Action: gesture.None}
}

// Commands returns the command table in match order.
func (m *Matcher) Commands() []Command {
	return m.commands
}
