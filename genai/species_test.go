package genai

import (
	"strings"
	"testing"

	"growe/models"
)

func fullSpecies() models.Species {
	return models.Species{
		Common:      "Moonpetal Fern",
		Scientific:  "Lunaria pteridora",
		Family:      "Lunariaceae",
		Genus:       "Lunaria",
		Species:     "pteridora",
		Habitat:     "shaded cliff faces",
		Region:      []string{"Northern Valerra"},
		Uses:        []string{"ornamental"},
		Description: "A silver-leafed fern that unfurls at dusk.",
		Habit:       "fern",
		Flowering:   "never",
		Edible:      false,
		Toxicity:    "mildly irritating sap",
	}
}

func TestValidateSpeciesComplete(t *testing.T) {
	s := fullSpecies()
	if err := ValidateSpecies(&s); err != nil {
		t.Errorf("complete species failed validation: %v", err)
	}
}

func TestValidateSpeciesMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Species)
	}{
		{"common", func(s *models.Species) { s.Common = "" }},
		{"scientific", func(s *models.Species) { s.Scientific = "" }},
		{"family", func(s *models.Species) { s.Family = "" }},
		{"genus", func(s *models.Species) { s.Genus = "" }},
		{"species", func(s *models.Species) { s.Species = "" }},
		{"habitat", func(s *models.Species) { s.Habitat = "" }},
		{"region", func(s *models.Species) { s.Region = nil }},
		{"uses", func(s *models.Species) { s.Uses = nil }},
		{"description", func(s *models.Species) { s.Description = "" }},
		{"habit", func(s *models.Species) { s.Habit = "" }},
		{"flowering", func(s *models.Species) { s.Flowering = "" }},
		{"toxicity", func(s *models.Species) { s.Toxicity = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fullSpecies()
			tt.mutate(&s)
			err := ValidateSpecies(&s)
			if err == nil {
				t.Fatalf("species missing %q passed validation", tt.name)
			}
			if !strings.Contains(err.Error(), tt.name) {
				t.Errorf("error %q does not name the missing field %q", err, tt.name)
			}
		})
	}
}

func TestStagePrompt(t *testing.T) {
	p := StagePrompt("Moonpetal Fern", "seedling")
	if !strings.Contains(p, "Moonpetal Fern") || !strings.Contains(p, "seedling") {
		t.Errorf("stage prompt missing species or stage: %q", p)
	}
}
