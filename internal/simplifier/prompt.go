package simplifier

import (
	"fmt"

	"github.com/textsimplify/api/pkg/models"
)

// instructions maps each level to its instruction sentence
var instructions = map[models.SimplificationLevel]string{
	models.LevelElementary: "Simplify this text for elementary school students, using basic vocabulary and short sentences.",
	models.LevelStandard:   "Simplify this text for general audience, maintaining clarity while removing complexity.",
	models.LevelTechnical:  "Maintain technical accuracy while improving clarity and readability.",
}

const promptTemplate = `Text to simplify: "%s"

Instructions:
1. %s
2. Provide 3-5 key points
3. Assess reading level

Format the response exactly as:
SIMPLIFIED: [simplified text]
KEY_POINTS:
- [point 1]
- [point 2]
- [point 3]
LEVEL: [reading level]`

// BuildPrompt produces the completion prompt for the given text and level.
// The input text is embedded verbatim.
func BuildPrompt(text string, level models.SimplificationLevel) string {
	return fmt.Sprintf(promptTemplate, text, instructions[level])
}

// ParseLevel resolves a requested level string. Empty input defaults to
// standard; anything else must be a valid tier.
func ParseLevel(s string) (models.SimplificationLevel, error) {
	if s == "" {
		return models.LevelStandard, nil
	}

	level := models.SimplificationLevel(s)
	if !level.Valid() {
		return "", fmt.Errorf("invalid level %q", s)
	}
	return level, nil
}
