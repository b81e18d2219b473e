package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/observe"
)

// legacyDocument is the format written by earlier versions, with integer trait values.
const legacyDocument = `{
    "Spider-Man": {
        "traits": {"superhero": 1, "real": 0, "red": 1},
        "image": "https://tinyurl.com/spidey-img",
        "guess_count": 2
    },
    "Albert Einstein": {
        "traits": {"superhero": 0, "real": 1, "red": 0, "wears a cape": 0.0},
        "image": "https://tinyurl.com/einstein-img",
        "guess_count": 0
    },
    "Batman": {
        "traits": {"superhero": 1.0, "wears a cape": 1.0},
        "image": "",
        "guess_count": 0
    }
}`

func sampleEntities() []knowledge.Entity {
	return []knowledge.Entity{
		{Name: "Zorro", Traits: map[string]float64{"wears a mask": 1, "real": 0.25}, Metadata: knowledge.Metadata{GuessCount: 4}},
		{Name: "Albert Einstein", Traits: map[string]float64{"real": 1}, Metadata: knowledge.Metadata{ImageURL: "https://example.com/e.png"}},
		{Name: "Batman", Traits: map[string]float64{}},
	}
}

func TestDocument(t *testing.T) {
	t.Run("Legacy format", func(t *testing.T) {
		entities, err := DecodeDocument([]byte(legacyDocument))
		if err != nil {
			t.Fatalf("DecodeDocument failed: %v", err)
		}
		if len(entities) != 3 {
			t.Fatalf("expected 3 entities, got %d", len(entities))
		}
		names := []string{entities[0].Name, entities[1].Name, entities[2].Name}
		if !reflect.DeepEqual(names, []string{"Spider-Man", "Albert Einstein", "Batman"}) {
			t.Errorf("expected document order, got %v", names)
		}
		if entities[0].Metadata.GuessCount != 2 || entities[0].Traits["red"] != 1 {
			t.Errorf("unexpected Spider-Man: %+v", entities[0])
		}
	})

	t.Run("Round trip keeps order", func(t *testing.T) {
		data, err := EncodeDocument(sampleEntities())
		if err != nil {
			t.Fatalf("EncodeDocument failed: %v", err)
		}
		got, err := DecodeDocument(data)
		if err != nil {
			t.Fatalf("DecodeDocument failed: %v", err)
		}
		if !reflect.DeepEqual(got, sampleEntities()) {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, sampleEntities())
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, doc := range []string{"", "[]", `{"x": 1}`, `{"x": {"traits": {}}`} {
			if _, err := DecodeDocument([]byte(doc)); err == nil {
				t.Errorf("expected error for %q", doc)
			}
		}
	})

	t.Run("Trailing data", func(t *testing.T) {
		data, _ := EncodeDocument(sampleEntities())
		for _, tail := range []string{" garbage", "{}", `{"y": {}}`, "]"} {
			if _, err := DecodeDocument(append(append([]byte{}, data...), tail...)); err == nil {
				t.Errorf("expected error for trailing %q", tail)
			}
		}
		if _, err := DecodeDocument(append(append([]byte{}, data...), "\n\n  "...)); err != nil {
			t.Errorf("expected trailing whitespace to be accepted, got %v", err)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		data, _ := EncodeDocument(nil)
		got, err := DecodeDocument(data)
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty document, got %v, %v", got, err)
		}
	})
}

func TestJSONFile(t *testing.T) {
	ctx := context.Background()
	tmpDir, _ := os.MkdirTemp("", "store-test-*")
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "data", "brain.json")
	s := NewJSONFile(path)

	t.Run("Defaults when missing", func(t *testing.T) {
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !reflect.DeepEqual(got, knowledge.DefaultEntities()) {
			t.Errorf("expected default entities, got %v", got)
		}
	})

	t.Run("Save and load", func(t *testing.T) {
		if err := s.Save(ctx, sampleEntities()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !reflect.DeepEqual(got, sampleEntities()) {
			t.Errorf("mismatch:\n got %+v\nwant %+v", got, sampleEntities())
		}
	})

	t.Run("Save of load is a no-op", func(t *testing.T) {
		if err := os.WriteFile(path, []byte(legacyDocument), 0600); err != nil {
			t.Fatal(err)
		}
		first, _ := s.Load(ctx)
		if err := s.Save(ctx, first); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		before, _ := os.ReadFile(path)
		second, _ := s.Load(ctx)
		if !reflect.DeepEqual(first, second) {
			t.Error("expected identical contents after save(load())")
		}
		if err := s.Save(ctx, second); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		after, _ := os.ReadFile(path)
		if !bytes.Equal(before, after) {
			t.Error("expected byte-identical documents on repeated save")
		}
	})

	t.Run("Corrupt file", func(t *testing.T) {
		os.WriteFile(path, []byte("not json"), 0600)
		if _, err := s.Load(ctx); err == nil {
			t.Error("expected error for corrupt document")
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	tmpDir, _ := os.MkdirTemp("", "store-test-*")
	defer os.RemoveAll(tmpDir)

	s, err := NewSQLiteStore(filepath.Join(tmpDir, "brain.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	t.Run("Defaults when empty", func(t *testing.T) {
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(got) != 2 || got[0].Name != "Spider-Man" {
			t.Errorf("expected default entities, got %v", got)
		}
	})

	t.Run("Save and load", func(t *testing.T) {
		if err := s.Save(ctx, sampleEntities()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !reflect.DeepEqual(got, sampleEntities()) {
			t.Errorf("mismatch:\n got %+v\nwant %+v", got, sampleEntities())
		}
	})

	t.Run("Save replaces everything", func(t *testing.T) {
		smaller := sampleEntities()[1:]
		if err := s.Save(ctx, smaller); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, _ := s.Load(ctx)
		if !reflect.DeepEqual(got, smaller) {
			t.Errorf("expected full overwrite, got %+v", got)
		}
		again, _ := s.Load(ctx)
		if err := s.Save(ctx, again); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		final, _ := s.Load(ctx)
		if !reflect.DeepEqual(final, again) {
			t.Error("expected save(load()) to be a no-op")
		}
	})
}

func TestWatch(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "store-test-*")
	defer os.RemoveAll(tmpDir)
	path := filepath.Join(tmpDir, "brain.json")

	changed := make(chan struct{}, 16)
	w, err := Watch(path, func() { changed <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	// Unrelated files are ignored.
	os.WriteFile(filepath.Join(tmpDir, "other.json"), []byte("{}"), 0600)

	if err := NewJSONFile(path).Save(context.Background(), sampleEntities()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestJSONFile_Changed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "brain.json")
	s := NewJSONFile(path)

	if s.Changed() {
		t.Error("expected a missing file not to count as a change")
	}
	if err := s.Save(ctx, sampleEntities()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if s.Changed() {
		t.Error("expected own save not to count as a change")
	}

	other, _ := EncodeDocument(sampleEntities()[:1])
	if err := os.WriteFile(path, other, 0600); err != nil {
		t.Fatal(err)
	}
	if !s.Changed() {
		t.Error("expected external write to count as a change")
	}
	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Changed() {
		t.Error("expected a loaded document not to count as a change")
	}
}

func TestJSONFile_WatchIgnoresOwnSaves(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "brain.json")
	s := NewJSONFile(path)
	if err := s.Save(ctx, sampleEntities()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	changed := make(chan struct{}, 16)
	w, err := s.Watch(func() { changed <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	if err := s.Save(ctx, sampleEntities()[:1]); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	select {
	case <-changed:
		t.Fatal("expected no notification for the store's own save")
	case <-time.After(500 * time.Millisecond):
	}

	if err := NewJSONFile(path).Save(ctx, sampleEntities()); err != nil {
		t.Fatalf("external Save failed: %v", err)
	}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a notification for another writer's save")
	}
}

func TestInstrumented(t *testing.T) {
	ctx := context.Background()
	tmpDir, _ := os.MkdirTemp("", "store-test-*")
	defer os.RemoveAll(tmpDir)

	buf := &bytes.Buffer{}
	p := Instrument(NewJSONFile(filepath.Join(tmpDir, "brain.json")), "json", observe.New(buf, true))

	if err := p.Save(ctx, sampleEntities()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 entities, got %d", len(got))
	}
	if !bytes.Contains(buf.Bytes(), []byte("knowledge base saved")) {
		t.Errorf("expected save to be logged, got %q", buf.String())
	}

	bad := Instrument(NewJSONFile(filepath.Join(tmpDir, "missing-dir", "x", "\x00")), "json", observe.New(buf, true))
	if err := bad.Save(ctx, sampleEntities()); err == nil {
		t.Error("expected error for invalid path")
	}
}
