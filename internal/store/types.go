package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/felixgeelhaar/genie/internal/knowledge"
)

// Record is the on-disk shape of one entity, keyed by name in the document.
type Record struct {
	Traits     map[string]float64 `json:"traits" yaml:"traits"`
	Image      string             `json:"image" yaml:"image"`
	GuessCount int                `json:"guess_count" yaml:"guess_count"`
}

// ToRecord converts an entity to its stored form.
func ToRecord(e knowledge.Entity) Record {
	traits := e.Traits
	if traits == nil {
		traits = map[string]float64{}
	}
	return Record{Traits: traits, Image: e.Metadata.ImageURL, GuessCount: e.Metadata.GuessCount}
}

// FromRecord converts a stored record back to an entity.
func FromRecord(name string, r Record) knowledge.Entity {
	traits := r.Traits
	if traits == nil {
		traits = map[string]float64{}
	}
	return knowledge.Entity{
		Name:     name,
		Traits:   traits,
		Metadata: knowledge.Metadata{ImageURL: r.Image, GuessCount: r.GuessCount},
	}
}

// EncodeDocument renders entities as a JSON object keyed by name, in store
// order, with four-space indentation.
func EncodeDocument(entities []knowledge.Entity) ([]byte, error) {
	var buf bytes.Buffer
	if len(entities) == 0 {
		return []byte("{}\n"), nil
	}
	buf.WriteString("{\n")
	for i, e := range entities {
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode name %q: %w", e.Name, err)
		}
		val, err := json.MarshalIndent(ToRecord(e), "    ", "    ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode entity %q: %w", e.Name, err)
		}
		buf.WriteString("    ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(entities)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// DecodeDocument parses a document written by EncodeDocument (or by earlier
// versions of the game), keeping the order of the entity keys.
func DecodeDocument(data []byte) ([]knowledge.Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("invalid document: expected object, got %v", tok)
	}

	var entities []knowledge.Entity
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read entity name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid document: expected entity name, got %v", tok)
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode entity %q: %w", name, err)
		}
		entities = append(entities, FromRecord(name, rec))
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read document end: %w", err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("invalid document: trailing data: %w", err)
		}
		return nil, fmt.Errorf("invalid document: trailing data %v", tok)
	}
	return entities, nil
}
