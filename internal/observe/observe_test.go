package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestObserver_Levels(t *testing.T) {
	testCases := []struct {
		name     string
		verbose  bool
		wantInfo bool
	}{
		{"verbose shows info", true, true},
		{"quiet hides info", false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			obs := New(buf, tc.verbose)

			obs.Log().Info().Str("entity", "SpiderMan").Msg("guessed correctly")
			obs.Log().Error().Str("path", "brain.json").Msg("failed to persist knowledge base")

			out := buf.String()
			if got := strings.Contains(out, "guessed correctly"); got != tc.wantInfo {
				t.Errorf("info logged = %v, want %v: %q", got, tc.wantInfo, out)
			}
			if !strings.Contains(out, "failed to persist knowledge base") {
				t.Errorf("expected errors to always be logged, got %q", out)
			}
		})
	}
}

func TestNewJSON_Fields(t *testing.T) {
	buf := &bytes.Buffer{}
	NewJSON(buf, true).Log().Info().Str("session", "s-1").Int("asked", 3).Msg("answer recorded")

	line := bytes.TrimSpace(buf.Bytes())
	if !json.Valid(line) {
		t.Fatalf("expected one JSON line, got %q", line)
	}
	if !bytes.Contains(line, []byte(`"session"`)) || !bytes.Contains(line, []byte("s-1")) {
		t.Errorf("expected session field, got %q", line)
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "genie.log")

	for i := 0; i < 2; i++ {
		obs, err := NewFile(path, false)
		if err != nil {
			t.Fatalf("NewFile failed: %v", err)
		}
		obs.Log().Warn().Int("run", i).Msg("knowledge base changed on disk")
		if err := obs.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if n := strings.Count(string(data), "knowledge base changed on disk"); n != 2 {
		t.Errorf("expected both runs appended, got %d in %q", n, data)
	}
}

func TestObserver_StartSpan(t *testing.T) {
	ctx, span := Discard().StartSpan(context.Background(), "game.Answer")
	defer span.End()
	if ctx == nil || span == nil {
		t.Fatal("expected a context and span")
	}
}

func TestDiscard(t *testing.T) {
	obs := Discard()
	obs.Log().Error().Msg("dropped")
	if err := obs.Close(); err != nil {
		t.Errorf("expected nil error from Close, got %v", err)
	}
}
