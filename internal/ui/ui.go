// Package ui renders game turns for people: a line-mode console that works
// over any reader and writer, and pterm tables for the leaderboard.
package ui

import "github.com/felixgeelhaar/genie/internal/game"

type UI interface {
	ShowTurn(t game.Turn)
	Log(msg string)
}

type SilentUI struct{}

func (s SilentUI) ShowTurn(t game.Turn) {}
func (s SilentUI) Log(msg string)       {}
