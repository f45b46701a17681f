package main

import (
	"encoding/json"
	"strings"
	"testing"
)

// fakePlayerctl records calls and answers from a table keyed by the joined args.
func fakePlayerctl(t *testing.T, answers map[string]string, fail error) *[]string {
	t.Helper()
	var calls []string
	orig := playerctl
	playerctl = func(args ...string) (string, error) {
		key := strings.Join(args, " ")
		calls = append(calls, key)
		if fail != nil {
			return "", fail
		}
		return answers[key], nil
	}
	t.Cleanup(func() { playerctl = orig })
	return &calls
}

func TestHandle_State(t *testing.T) {
	fakePlayerctl(t, map[string]string{
		"--player=spotify status":                                   "Playing",
		"--player=spotify volume":                                   "0.654",
		"--player=spotify metadata --format {{playerName}}":         "spotify",
		"--player=spotify metadata --format {{artist}} - {{title}}": "Elis Regina - Águas de Março",
	}, nil)

	resp := handle(strings.NewReader(`{"action":"state","config":{"player":"spotify"}}`))
	if !resp.Success {
		t.Fatalf("response = %+v", resp)
	}
	var st playerState
	if err := json.Unmarshal(resp.Data, &st); err != nil {
		t.Fatal(err)
	}
	want := playerState{IsPlaying: true, VolumePercent: 65, DevicePresent: true, DeviceName: "spotify", Track: "Elis Regina - Águas de Março"}
	if st != want {
		t.Errorf("state = %+v, want %+v", st, want)
	}
}

func TestHandle_NoPlayer(t *testing.T) {
	fakePlayerctl(t, nil, errNoPlayer)

	resp := handle(strings.NewReader(`{"action":"state"}`))
	if !resp.Success {
		t.Fatalf("state without player should succeed with no device, got %+v", resp)
	}
	var st playerState
	json.Unmarshal(resp.Data, &st)
	if st.DevicePresent {
		t.Error("DevicePresent = true without a player")
	}

	resp = handle(strings.NewReader(`{"action":"next"}`))
	if resp.Success || resp.Code != "no_device" {
		t.Errorf("next without player = %+v, want no_device", resp)
	}
}

func TestHandle_Actions(t *testing.T) {
	tests := []struct {
		request string
		call    string
	}{
		{`{"action":"next"}`, "next"},
		{`{"action":"previous"}`, "previous"},
		{`{"action":"pause"}`, "pause"},
		{`{"action":"resume"}`, "play"},
		{`{"action":"volume","params":{"percent":70}}`, "volume 0.70"},
		{`{"action":"volume","params":{"percent":130}}`, "volume 1.00"},
	}
	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			calls := fakePlayerctl(t, nil, nil)
			resp := handle(strings.NewReader(tt.request))
			if !resp.Success {
				t.Fatalf("response = %+v", resp)
			}
			if len(*calls) != 1 || (*calls)[0] != tt.call {
				t.Errorf("calls = %v, want [%s]", *calls, tt.call)
			}
		})
	}
}

func TestHandle_BadRequests(t *testing.T) {
	fakePlayerctl(t, nil, nil)

	for _, req := range []string{
		`not json`,
		`{"action":"brightness-up"}`,
		`{"action":"volume"}`,
		`{"action":"next","config":"spotify"}`,
	} {
		if resp := handle(strings.NewReader(req)); resp.Success || resp.Error == "" {
			t.Errorf("handle(%s) = %+v, want an error", req, resp)
		}
	}
}

func TestParseVolume(t *testing.T) {
	tests := map[string]int{"0.5": 50, "1.000000": 100, "1.2": 100, "0.004": 0, "junk": 0, " 0.33\n": 33}
	for in, want := range tests {
		if got := parseVolume(in); got != want {
			t.Errorf("parseVolume(%q) = %d, want %d", in, got, want)
		}
	}
}
