package models

import (
	"time"
)

// SimplificationLevel represents the requested difficulty tier
type SimplificationLevel string

const (
	LevelElementary SimplificationLevel = "elementary"
	LevelStandard   SimplificationLevel = "standard"
	LevelTechnical  SimplificationLevel = "technical"
)

// Valid reports whether the level is one of the supported tiers
func (l SimplificationLevel) Valid() bool {
	switch l {
	case LevelElementary, LevelStandard, LevelTechnical:
		return true
	}
	return false
}

// Query represents one persisted simplification request/response pair.
// Immutable once created except for deletion by its owner.
type Query struct {
	ID             string              `json:"id" db:"id"`
	UserID         string              `json:"-" db:"user_id"`
	OriginalText   string              `json:"original_text" db:"original_text"`
	Level          SimplificationLevel `json:"level" db:"level"`
	SimplifiedText string              `json:"simplified_text" db:"simplified_text"`
	KeyPoints      []string            `json:"key_points" db:"key_points"`
	ReadingLevel   string              `json:"reading_level" db:"reading_level"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
}
