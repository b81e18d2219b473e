// Package teach checks what players teach the game and loads entity seed
// files for bulk import and export.
package teach

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/store"
	"gopkg.in/yaml.v3"
)

// Submission is what the player typed after a wrong guess.
type Submission struct {
	Name     string
	Trait    string
	ImageURL string
}

// ValidationResult represents the outcome of a validation pass.
type ValidationResult struct {
	Valid    bool
	Warnings []string
	Errors   []error
}

// Err returns the first error, or nil for a valid submission.
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// Validator validates submissions against the current knowledge base.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks sub before it is handed to knowledge.Base.Learn. Empty
// names and traits are errors; name collisions are an error under the
// reject policy and a warning otherwise.
func (v *Validator) Validate(sub Submission, kb *knowledge.Base, onCollision knowledge.CollisionPolicy) ValidationResult {
	res := ValidationResult{
		Valid:    true,
		Warnings: []string{},
		Errors:   []error{},
	}

	name := strings.TrimSpace(sub.Name)
	trait := strings.TrimSpace(sub.Trait)
	image := strings.TrimSpace(sub.ImageURL)

	if name == "" {
		res.Valid = false
		res.Errors = append(res.Errors, knowledge.ErrEmptyName)
	}
	if trait == "" {
		res.Valid = false
		res.Errors = append(res.Errors, knowledge.ErrEmptyTrait)
	}

	if kb != nil && name != "" && kb.Has(name) {
		if onCollision == knowledge.Reject {
			res.Valid = false
			res.Errors = append(res.Errors, errors.Wrapf(knowledge.ErrNameExists, "%q", name))
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%q is already known and will be replaced", name))
		}
	}
	if kb != nil && trait != "" && kb.HasTrait(trait) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("trait %q already exists; it may not tell %q apart", trait, name))
	}
	if image != "" && !strings.HasPrefix(image, "http://") && !strings.HasPrefix(image, "https://") {
		res.Warnings = append(res.Warnings, "image is not an http(s) URL")
	}

	return res
}

// LoadSeed reads entities from a JSON or YAML document keyed by name, in
// document order.
func LoadSeed(path string) ([]knowledge.Entity, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		entities, err := store.DecodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return entities, nil
	case ".yaml", ".yml":
		entities, err := decodeYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return entities, nil
	default:
		return nil, fmt.Errorf("unsupported seed format: %s (use .json or .yaml)", ext)
	}
}

// LoadSeeds loads every file matching pattern (doublestar syntax, e.g.
// "seeds/**/*.yaml"). Files are read in lexical order; later files win on
// duplicate names.
func LoadSeeds(pattern string) ([]knowledge.Entity, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no seed files match %q", pattern)
	}
	sort.Strings(matches)

	var all []knowledge.Entity
	for _, m := range matches {
		entities, err := LoadSeed(m)
		if err != nil {
			return nil, err
		}
		all = append(all, entities...)
	}
	return all, nil
}

// WriteSeed exports entities to path, as YAML for .yaml/.yml and JSON
// otherwise.
func WriteSeed(path string, entities []knowledge.Entity) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = encodeYAML(entities)
	default:
		data, err = store.EncodeDocument(entities)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func decodeYAML(data []byte) ([]knowledge.Entity, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of names to entities")
	}

	entities := make([]knowledge.Entity, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var rec store.Record
		if err := root.Content[i+1].Decode(&rec); err != nil {
			return nil, fmt.Errorf("entity %q: %w", name, err)
		}
		entities = append(entities, store.FromRecord(name, rec))
	}
	return entities, nil
}

func encodeYAML(entities []knowledge.Entity) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entities {
		var val yaml.Node
		if err := val.Encode(store.ToRecord(e)); err != nil {
			return nil, fmt.Errorf("failed to encode entity %q: %w", e.Name, err)
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name}, &val)
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to encode seed: %w", err)
	}
	return data, nil
}
