package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestParseArgs verifies subcommand and flag parsing.
func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"no command", nil, true},
		{"unknown command", []string{"teleport"}, true},
		{"move with route", []string{"move", "-route", "10,11,12"}, false},
		{"move missing route", []string{"move"}, true},
		{"load with channels", []string{"load", "-channels", "3,4,5"}, false},
		{"gather with sources and target", []string{"gather", "-sources", "10,24", "-target", "17"}, false},
		{"gather missing target", []string{"gather", "-sources", "10,24"}, true},
		{"gather missing sources", []string{"gather", "-target", "17"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseArgs(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

// TestParseChannels verifies channel list parsing.
func TestParseChannels(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{"single", "5", []int{5}, false},
		{"multiple", "10,11,12", []int{10, 11, 12}, false},
		{"with spaces", " 1, 2 ,3 ", []int{1, 2, 3}, false},
		{"empty", "", nil, true},
		{"not a number", "1,two,3", nil, true},
		{"negative", "1,-2", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChannels(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseChannels(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseChannels(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseChannels(%q)[%d] = %d, want %d", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("DROPCTL_CONFIG")
	defer os.Setenv("DROPCTL_CONFIG", originalEnv)

	os.Unsetenv("DROPCTL_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("DROPCTL_CONFIG")
	defer os.Setenv("DROPCTL_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("DROPCTL_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("DROPCTL_CONFIG")
	defer os.Setenv("DROPCTL_CONFIG", originalEnv)

	os.Setenv("DROPCTL_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, []string{"move", "-route", "1,2"})
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
device:
  id: dropbot-test

database:
  path: ""

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: "dropctl-test"
  qos: 1

influxdb:
  enabled: false

logging:
  level: info
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("DROPCTL_CONFIG")
	defer os.Setenv("DROPCTL_CONFIG", originalEnv)
	os.Setenv("DROPCTL_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, []string{"move", "-route", "1,2"})
	if err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestRun_BadArgsBeforeConfig verifies argument errors surface before any
// infrastructure is touched.
func TestRun_BadArgsBeforeConfig(t *testing.T) {
	originalEnv := os.Getenv("DROPCTL_CONFIG")
	defer os.Setenv("DROPCTL_CONFIG", originalEnv)

	// Config path is invalid, but the argument error must win.
	os.Setenv("DROPCTL_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, []string{"teleport"})
	if err == nil {
		t.Fatal("run() should fail with unknown command")
	}
}
