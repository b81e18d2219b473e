package game

import "github.com/cockroachdb/errors"

var (
	ErrInvalidAnswer = errors.WithHint(
		errors.New("invalid answer"),
		"answer with one of: yes, probably, don't know, probably not, no")
	ErrUnexpectedTrait = errors.New("answer does not match the current question")
	ErrWrongState      = errors.New("action not allowed in the current state")
)
