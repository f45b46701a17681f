package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/config"
	"github.com/ayusman/skipspot/internal/store"
)

type menuItem struct {
	key, title, help string
}

var menuItems = []menuItem{
	{"1", "Gesture mode", "camera + hand poses; q or Esc in the preview returns here"},
	{"2", "Voice mode", `spoken commands; say "sair", "voltar" or "menu" to return`},
	{"3", "Reference inspection", "replay captured poses through the classifier"},
	{"q", "Quit", ""},
}

func renderMenu() string {
	lines := []string{styles.Title.Render("skipspot"), ""}
	for _, item := range menuItems {
		line := styles.Key.Render(item.key) + "  " + item.title
		if item.help != "" {
			line += "  " + styles.Help.Render(item.help)
		}
		lines = append(lines, line)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(defaultTheme.Primary).
		Padding(0, 1)
	return box.Render(strings.Join(lines, "\n")) + "\n"
}

// runMenu reads choices from in until quit or end of input. The playback
// backend is connected on the first recognition mode chosen.
func runMenu(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	var rt *runtime
	defer func() {
		if rt != nil {
			rt.Close()
		}
	}()

	for ctx.Err() == nil {
		fmt.Fprint(out, renderMenu())
		fmt.Fprint(out, styles.Help.Render("choice> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		choice := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch choice {
		case "":
		case "1", "2":
			if rt == nil {
				var err error
				if rt, err = newRuntime(ctx, cfg); err != nil {
					fmt.Fprintln(out, styles.Warn.Render("playback unavailable: "+err.Error()))
					rt = nil
					continue
				}
			}
			runner, banner := rt.gestureRunner(), gestureBanner(cfg)
			if choice == "2" {
				runner, banner = rt.voiceRunner(), voiceBanner(cfg)
			}
			fmt.Fprint(out, banner)
			if err := watch(ctx, rt.hub, runner, out); err != nil {
				fmt.Fprintln(out, styles.Warn.Render(err.Error()))
			}
		case "3":
			var st *store.Store
			if rt != nil {
				st = rt.store
			}
			if err := inspectWith(st, cfg, out); err != nil {
				fmt.Fprintln(out, styles.Warn.Render(err.Error()))
			}
		case "q", "quit", "exit":
			fmt.Fprintln(out, "Bye.")
			return nil
		default:
			fmt.Fprintf(out, "unknown choice %q\n", choice)
		}
	}
	return nil
}

// watch runs a recognition mode in the foreground and prints its events.
// Cancellation is a normal way to leave a mode.
func watch(ctx context.Context, hub *app.Hub, runner app.Runner, out io.Writer) error {
	events, unsubscribe := hub.Subscribe(64)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range events {
			printEvent(out, ev)
		}
	}()

	err := runner(ctx)
	unsubscribe()
	<-printed

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// inspectWith prints the reference report using st, or a store opened from
// cfg when st is nil.
func inspectWith(st *store.Store, cfg *config.Config, out io.Writer) error {
	if st == nil {
		opened, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer opened.Close()
		st = opened
	}
	return printInspection(st, cfg, out)
}

func gestureBanner(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styles.Title.Render("Gesture mode"), styles.Help.Render("scheme "+cfg.Gesture.Scheme))
	pipeline, err := app.PipelineFromConfig(cfg)
	if err == nil {
		for _, r := range pipeline.Classifier.Rules() {
			fmt.Fprintf(&b, "  %-28s %s\n", r.Name, styles.Key.Render(string(r.Label)))
		}
	}
	return b.String()
}

func voiceBanner(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styles.Title.Render("Voice mode"), styles.Help.Render(cfg.Voice.Engine+", "+cfg.Voice.Locale))
	for _, c := range cfg.Voice.Commands {
		fmt.Fprintf(&b, "  %-12s %s\n", styles.Key.Render(c.Action), strings.Join(c.Triggers, ", "))
	}
	fmt.Fprintf(&b, "  %-12s %s\n", styles.Key.Render("exit"), strings.Join(cfg.Voice.ExitPhrases, ", "))
	return b.String()
}
