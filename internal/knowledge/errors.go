package knowledge

import "github.com/cockroachdb/errors"

var (
	ErrEmptyName = errors.WithHint(
		errors.New("entity name is required"),
		"tell me who you were thinking of")
	ErrEmptyTrait = errors.WithHint(
		errors.New("a distinguishing trait is required"),
		"describe something that sets this character apart, e.g. 'has a beard'")
	ErrNameExists = errors.WithHint(
		errors.New("entity already exists"),
		"pick a different name or set policy.on_collision to overwrite")
	ErrUnknownEntity      = errors.New("unknown entity")
	ErrEmptyKnowledgeBase = errors.New("knowledge base is empty")
	ErrInvalidCollision   = errors.New("invalid collision policy")
)
