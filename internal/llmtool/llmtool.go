// Package llmtool implements the LLM-backed collaborators: location
// normalization, menu generation, and cart intent extraction. Each one is a
// single completion call with a tolerant parse of the model's output.
package llmtool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"savor/internal/menu"
	"savor/internal/models"
)

// Completer is the narrow slice of an llms.LLM these tools need. Satisfied
// by any langchaingo model client.
type Completer interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

var (
	jsonObject = regexp.MustCompile(`(?s)\{.*\}`)
	jsonArray  = regexp.MustCompile(`(?s)\[.*\]`)
)

// LocationNormalizer converts messy free-text location input into a clean,
// globally recognized location string.
type LocationNormalizer struct {
	llm Completer
	log *zap.Logger
}

func NewLocationNormalizer(llm Completer, log *zap.Logger) *LocationNormalizer {
	return &LocationNormalizer{llm: llm, log: log}
}

// Normalize asks the model for a canonical {location, ll} pair. Callers
// treat any error as non-fatal and fall back to the raw input.
func (n *LocationNormalizer) Normalize(ctx context.Context, raw string) (models.Location, error) {
	out, err := n.llm.Call(ctx, locationPrompt(raw), llms.WithTemperature(0.2))
	if err != nil {
		return models.Location{}, fmt.Errorf("location completion: %w", err)
	}

	match := jsonObject.FindString(out)
	if match == "" {
		return models.Location{}, fmt.Errorf("no JSON object in location response")
	}

	var loc models.Location
	if err := json.Unmarshal([]byte(match), &loc); err != nil {
		return models.Location{}, fmt.Errorf("unmarshal location response: %w", err)
	}
	if loc.Location == "" {
		return models.Location{}, fmt.Errorf("empty location in response")
	}

	n.log.Debug("normalized location",
		zap.String("raw", raw),
		zap.String("location", loc.Location),
		zap.String("ll", loc.Coordinates))
	return loc, nil
}

// MenuGenerator produces a menu for a restaurant: the structured
// pipe-delimited block the parser consumes, from which the human-readable
// form is derived.
type MenuGenerator struct {
	llm Completer
	log *zap.Logger
}

func NewMenuGenerator(llm Completer, log *zap.Logger) *MenuGenerator {
	return &MenuGenerator{llm: llm, log: log}
}

// Menu returns both the human-readable menu and the structured
// pipe-delimited block it was derived from. A fault is reported to the
// caller, which substitutes an apology string and keeps the conversation
// alive.
func (g *MenuGenerator) Menu(ctx context.Context, restaurant, cuisineType string) (formatted, structured string, err error) {
	out, err := g.llm.Call(ctx, menuPrompt(restaurant, cuisineType), llms.WithTemperature(0.3))
	if err != nil {
		return "", "", fmt.Errorf("menu completion: %w", err)
	}
	structured = strings.TrimSpace(out)
	formatted = menu.Format(structured, restaurant, g.log)
	return formatted, structured, nil
}

// IntentExtractor pulls {item, quantity} pairs out of a free-text order
// message, given the menu the user is looking at.
type IntentExtractor struct {
	llm Completer
	log *zap.Logger
}

func NewIntentExtractor(llm Completer, log *zap.Logger) *IntentExtractor {
	return &IntentExtractor{llm: llm, log: log}
}

// Extract returns the extracted items. A malformed or non-list response is
// not an error: the result is simply empty. Only a transport-level fault
// surfaces as an error.
func (e *IntentExtractor) Extract(ctx context.Context, menuText, message string) ([]models.ExtractedItem, error) {
	out, err := e.llm.Call(ctx, cartExtractionPrompt(menuText, message), llms.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}

	match := jsonArray.FindString(out)
	if match == "" {
		e.log.Warn("no JSON array in extraction response", zap.String("response", out))
		return nil, nil
	}

	var items []models.ExtractedItem
	if err := json.Unmarshal([]byte(match), &items); err != nil {
		e.log.Warn("unparseable extraction response",
			zap.String("response", match),
			zap.Error(err))
		return nil, nil
	}

	return items, nil
}
