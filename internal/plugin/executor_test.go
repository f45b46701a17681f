package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    PlayerActions,
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "state-plugin", `cat <<'JSON'
{"success":true,"data":{"is_playing":true,"volume_percent":40,"device_present":true}}
JSON
`)

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{Action: ActionState})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["volume_percent"] != 40.0 {
		t.Errorf("expected volume_percent 40, got %v", data["volume_percent"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo-plugin", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	request := &Request{
		Action: ActionVolume,
		Source: "voice",
		Params: json.RawMessage(`{"percent":70}`),
	}

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	if data.Received.Action != ActionVolume {
		t.Errorf("expected action %q, got %q", ActionVolume, data.Received.Action)
	}
	if data.Received.Source != "voice" {
		t.Errorf("expected source 'voice', got %q", data.Received.Source)
	}
	if string(data.Received.Params) != `{"percent":70}` {
		t.Errorf("unexpected params %s", data.Received.Params)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow-plugin", `sleep 10
echo '{"success":true}'
`)

	executor := NewExecutor(100 * time.Millisecond)
	_, err := executor.Execute(context.Background(), plugin, &Request{Action: ActionNext})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExecutor_ParentDeadline(t *testing.T) {
	plugin := scriptPlugin(t, "slow-plugin", `sleep 10
echo '{"success":true}'
`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	executor := NewExecutor(0)
	if _, err := executor.Execute(ctx, plugin, &Request{Action: ActionNext}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout from the caller's deadline, got %v", err)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, "error-plugin", `echo '{"success":false,"error":"no player running","code":"no_device"}'
`)

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{Action: ActionPause})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "no player running" {
		t.Errorf("expected error 'no player running', got %q", response.Error)
	}
	if response.Code != CodeNoDevice {
		t.Errorf("expected code %q, got %q", CodeNoDevice, response.Code)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := scriptPlugin(t, "bad-plugin", `echo 'not valid json'
`)

	executor := NewExecutor(5 * time.Second)
	if _, err := executor.Execute(context.Background(), plugin, &Request{Action: ActionState}); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := scriptPlugin(t, "exit-plugin", `echo "Error: something failed" >&2
exit 1
`)

	executor := NewExecutor(5 * time.Second)
	_, err := executor.Execute(context.Background(), plugin, &Request{Action: ActionState})
	if err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("a failing plugin is not a timeout: %v", err)
	}
}

func TestManifest_Supports(t *testing.T) {
	m := Manifest{Actions: []string{ActionState, ActionNext}}
	if !m.Supports(ActionNext) {
		t.Error("expected next to be supported")
	}
	if m.Supports(ActionVolume) {
		t.Error("volume is not declared")
	}
}
