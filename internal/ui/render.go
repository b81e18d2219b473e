package ui

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/pterm/pterm"
)

// RenderLeaderboard formats standings as a table.
func RenderLeaderboard(standings []knowledge.Standing) (string, error) {
	data := pterm.TableData{{"#", "Character", "Guesses"}}
	for i, s := range standings {
		data = append(data, []string{strconv.Itoa(i + 1), s.Name, strconv.Itoa(s.GuessCount)})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", fmt.Errorf("failed to render leaderboard: %w", err)
	}
	return out, nil
}

// RenderEntities formats every entity with its trait count and image.
func RenderEntities(entities []knowledge.Entity) (string, error) {
	data := pterm.TableData{{"Character", "Traits", "Guesses", "Image"}}
	for _, e := range entities {
		data = append(data, []string{
			e.Name,
			strconv.Itoa(len(e.Traits)),
			strconv.Itoa(e.Metadata.GuessCount),
			e.Metadata.ImageURL,
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", fmt.Errorf("failed to render entities: %w", err)
	}
	return out, nil
}

// Setting is one row of `genie config list`.
type Setting struct {
	Key    string
	Value  string
	Source string
}

// RenderSettings formats configuration keys with their effective values.
func RenderSettings(settings []Setting) (string, error) {
	data := pterm.TableData{{"Key", "Value", "Source"}}
	for _, s := range settings {
		data = append(data, []string{s.Key, s.Value, s.Source})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", fmt.Errorf("failed to render settings: %w", err)
	}
	return out, nil
}
