package simplifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/textsimplify/api/pkg/models"
)

func TestBuildPromptEmbedsTextVerbatim(t *testing.T) {
	text := "The mitochondria is the powerhouse of the cell."

	for _, level := range []models.SimplificationLevel{
		models.LevelElementary, models.LevelStandard, models.LevelTechnical,
	} {
		prompt := BuildPrompt(text, level)
		assert.Contains(t, prompt, text, "level %s", level)
		assert.Contains(t, prompt, instructions[level], "level %s", level)
	}
}

func TestBuildPromptElementaryExample(t *testing.T) {
	prompt := BuildPrompt("The mitochondria is the powerhouse of the cell.", models.LevelElementary)

	assert.Contains(t, prompt, `Text to simplify: "The mitochondria is the powerhouse of the cell."`)
	assert.Contains(t, prompt, "Simplify this text for elementary school students, using basic vocabulary and short sentences.")
	assert.Contains(t, prompt, "SIMPLIFIED: [simplified text]")
	assert.Contains(t, prompt, "KEY_POINTS:")
	assert.Contains(t, prompt, "LEVEL: [reading level]")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    models.SimplificationLevel
		wantErr bool
	}{
		{"", models.LevelStandard, false},
		{"elementary", models.LevelElementary, false},
		{"standard", models.LevelStandard, false},
		{"technical", models.LevelTechnical, false},
		{"expert", "", true},
		{"Elementary", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}
