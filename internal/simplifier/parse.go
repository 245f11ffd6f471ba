package simplifier

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnparsable is returned when the model reply contains none of the
// expected section markers.
var ErrUnparsable = errors.New("Failed to parse AI response")

// Result holds the three sections extracted from a model reply
type Result struct {
	Simplified string
	KeyPoints  []string
	Level      string
}

var (
	simplifiedRe = regexp.MustCompile(`(?s)SIMPLIFIED: (.*?)\nKEY_POINTS:`)
	keyPointsRe  = regexp.MustCompile(`KEY_POINTS:\n((?:- .*\n?)*)`)
	levelRe      = regexp.MustCompile(`LEVEL: (.*)`)
)

// ParseResponse extracts the SIMPLIFIED, KEY_POINTS and LEVEL sections from
// a model reply. Individual missing sections degrade to empty values, but a
// reply containing none of the markers at all is rejected with ErrUnparsable.
func ParseResponse(response string) (*Result, error) {
	hasMarker := strings.Contains(response, "SIMPLIFIED:") ||
		strings.Contains(response, "KEY_POINTS:") ||
		strings.Contains(response, "LEVEL:")
	if !hasMarker {
		return nil, ErrUnparsable
	}

	result := &Result{KeyPoints: []string{}}

	if m := simplifiedRe.FindStringSubmatch(response); m != nil {
		result.Simplified = strings.TrimSpace(m[1])
	}

	if m := keyPointsRe.FindStringSubmatch(response); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			if strings.HasPrefix(line, "- ") {
				result.KeyPoints = append(result.KeyPoints, strings.TrimSpace(line[2:]))
			}
		}
	}

	if m := levelRe.FindStringSubmatch(response); m != nil {
		result.Level = strings.TrimSpace(m[1])
	}

	return result, nil
}
