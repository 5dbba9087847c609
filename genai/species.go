package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"growe/models"
)

const speciesPrompt = `Invent %d distinct plant species for a gardening game. Fictional species are welcome.
Respond with a JSON object of the form {"species": [...]} where every entry has exactly these fields:
"common" (string), "scientific" (string), "family" (string), "genus" (string), "species" (string),
"habitat" (string), "region" (array of strings), "uses" (array of strings), "description" (string),
"habit" (string, e.g. herb/shrub/vine), "flowering" (string), "edible" (boolean), "toxicity" (string).`

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateSpecies asks the text-generation API for n candidate plant species
// and validates each against the 13-field schema.
func GenerateSpecies(ctx context.Context, n int) ([]models.Species, error) {
	model := os.Getenv("TEXTGEN_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(speciesPrompt, n)},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv("TEXTGEN_API_KEY"))
	req.Header.Set("Content-Type", "application/json")

	res, err := httpCli.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("text generation http %d", res.StatusCode)
	}

	var resp chatResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("text generation returned no choices")
	}

	var parsed struct {
		Species []models.Species `json:"species"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("text generation returned malformed JSON: %w", err)
	}
	if len(parsed.Species) != n {
		return nil, fmt.Errorf("text generation returned %d species, want %d", len(parsed.Species), n)
	}
	for i := range parsed.Species {
		if err := ValidateSpecies(&parsed.Species[i]); err != nil {
			return nil, fmt.Errorf("species %d: %w", i, err)
		}
	}
	return parsed.Species, nil
}

// ValidateSpecies checks that a generated species fills the full schema.
func ValidateSpecies(s *models.Species) error {
	fields := map[string]string{
		"common":      s.Common,
		"scientific":  s.Scientific,
		"family":      s.Family,
		"genus":       s.Genus,
		"species":     s.Species,
		"habitat":     s.Habitat,
		"description": s.Description,
		"habit":       s.Habit,
		"flowering":   s.Flowering,
		"toxicity":    s.Toxicity,
	}
	for name, val := range fields {
		if val == "" {
			return fmt.Errorf("missing field %q", name)
		}
	}
	if len(s.Region) == 0 {
		return fmt.Errorf("missing field %q", "region")
	}
	if len(s.Uses) == 0 {
		return fmt.Errorf("missing field %q", "uses")
	}
	return nil
}
