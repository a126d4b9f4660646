package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cjeanneret/SafeDial/internal/config"
	"github.com/cjeanneret/SafeDial/internal/logic/rotation"
	"github.com/cjeanneret/SafeDial/internal/logic/session"
)

func intPtr(v int) *int { return &v }

// ---------- validateCLIOverrides ----------

func TestValidateCLIOverrides_Unset(t *testing.T) {
	if err := validateCLIOverrides(Overrides{}); err != nil {
		t.Errorf("unset overrides should be valid, got: %v", err)
	}
}

func TestValidateCLIOverrides_ValidBoundary(t *testing.T) {
	cases := []struct {
		name string
		o    Overrides
	}{
		{"min_start", Overrides{Start: intPtr(0)}},
		{"max_start", Overrides{Start: intPtr(99)}},
		{"text", Overrides{Format: "text"}},
		{"json", Overrides{Format: "json"}},
		{"debug_off", Overrides{DebugLevel: intPtr(0)}},
		{"debug_trace", Overrides{DebugLevel: intPtr(4)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateCLIOverrides(tc.o); err != nil {
				t.Errorf("expected valid, got: %v", err)
			}
		})
	}
}

func TestValidateCLIOverrides_OutOfRange(t *testing.T) {
	cases := []struct {
		name string
		o    Overrides
	}{
		{"start_negative", Overrides{Start: intPtr(-1)}},
		{"start_too_large", Overrides{Start: intPtr(100)}},
		{"format_unknown", Overrides{Format: "yaml"}},
		{"debug_negative", Overrides{DebugLevel: intPtr(-1)}},
		{"debug_too_large", Overrides{DebugLevel: intPtr(5)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateCLIOverrides(tc.o); err == nil {
				t.Error("expected error for out-of-range value, got nil")
			}
		})
	}
}

// ---------- optionalIntFlag ----------

func TestOptionalIntFlag(t *testing.T) {
	f := &optionalIntFlag{}
	if f.value() != nil || f.String() != "" {
		t.Errorf("unset flag: value=%v string=%q", f.value(), f.String())
	}
	if err := f.Set("0"); err != nil {
		t.Fatalf("Set(\"0\"): %v", err)
	}
	if v := f.value(); v == nil || *v != 0 {
		t.Errorf("explicit 0 should be kept, got %v", v)
	}
	if f.String() != "0" {
		t.Errorf("String() = %q, want \"0\"", f.String())
	}
	for _, bad := range []string{"", "abc", "1.5"} {
		if err := (&optionalIntFlag{}).Set(bad); err == nil {
			t.Errorf("Set(%q) should fail", bad)
		}
	}
}

// ---------- applyOverrides ----------

func TestApplyOverrides_Set(t *testing.T) {
	cfg := config.Default()
	applyOverrides(cfg, Overrides{
		Start:       intPtr(0),
		Format:      "json",
		SkipInvalid: true,
		DebugLevel:  intPtr(3),
	})
	if cfg.StartPosition() != 0 {
		t.Errorf("start = %d, want 0", cfg.StartPosition())
	}
	if cfg.Report.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Report.Format)
	}
	if !cfg.Dial.SkipInvalid {
		t.Error("skip_invalid should be set")
	}
	if cfg.Defaults.DebugLevel != 3 {
		t.Errorf("debug level = %d, want 3", cfg.Defaults.DebugLevel)
	}
}

func TestApplyOverrides_UnsetLeavesUnchanged(t *testing.T) {
	cfg := config.Default()
	start := 12
	cfg.Dial.StartPosition = &start
	cfg.Dial.SkipInvalid = true

	applyOverrides(cfg, Overrides{})

	if cfg.StartPosition() != 12 || cfg.Report.Format != "text" || !cfg.Dial.SkipInvalid {
		t.Errorf("config changed: %+v", cfg)
	}
}

// ---------- run ----------

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rotations.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_TextReport(t *testing.T) {
	var out bytes.Buffer
	path := writeInput(t, "L68\nL30\nR48\nL5\nR60\nL55\nL1\nL99\nR14\nL82\n")

	if err := run(context.Background(), config.Default(), path, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 12 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if lines[0] != "Step 0, turn dial from 50 to the left by 68 clicks, ends up at 82 crossing zero 1 times." {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[10] != "Zero-stopping count was 3" || lines[11] != "Zero-crossing count was 6" {
		t.Errorf("summary = %q / %q", lines[10], lines[11])
	}
}

func TestRun_JSONWithStartOverride(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Default()
	applyOverrides(cfg, Overrides{Start: intPtr(0), Format: "json"})

	if err := run(context.Background(), cfg, writeInput(t, "R200\n"), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := `{"type":"step","index":0,"from":0,"direction":"right","clicks":200,"position":0,"crossings":2}` + "\n" +
		`{"type":"summary","rotations":1,"zero_stops":1,"zero_crossings":2,"skipped":0}` + "\n"
	if out.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestRun_ParseErrorIsFatal(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), config.Default(), writeInput(t, "L1\nX90\n"), &out)

	var lerr *session.LineError
	if !errors.As(err, &lerr) || lerr.Line != 2 {
		t.Fatalf("run error = %v, want LineError on line 2", err)
	}
	if !errors.Is(err, rotation.ErrIncorrectStartOfLine) {
		t.Errorf("error should wrap ErrIncorrectStartOfLine: %v", err)
	}
	if strings.Contains(out.String(), "Zero-stopping") {
		t.Error("summary must not be printed after a fatal error")
	}
}

func TestRun_SkipInvalid(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Default()
	applyOverrides(cfg, Overrides{SkipInvalid: true})

	if err := run(context.Background(), cfg, writeInput(t, "L50\nLYY\n"), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Skipped 1 invalid lines") {
		t.Errorf("missing skipped line:\n%s", out.String())
	}
}

func TestRun_MissingInput(t *testing.T) {
	err := run(context.Background(), config.Default(), filepath.Join(t.TempDir(), "missing.txt"), &bytes.Buffer{})
	if err == nil {
		t.Error("expected error for missing input file")
	}
}

func TestRun_WithMockHardware(t *testing.T) {
	cfg, err := config.Parse([]byte(`
defaults:
  mock_gpio: true
actuator:
  enabled: true
  move_speed_ms: 1
  stepper:
    step_pin: 17
    dir_pin: 27
    steps_per_rev: 4
    microstepping: 1
indicator:
  enabled: true
  pin: 22
  pulse_ms: 1
`))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, writeInput(t, "L50\nR25\n"), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Zero-crossing count was 1") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
