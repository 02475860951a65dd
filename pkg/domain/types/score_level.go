package types

import "github.com/m-mizutani/goerr/v2"

// ScoreLevel is a three-tier categorical score used for magnitude, likelihood and horizon
type ScoreLevel string

const (
	ScoreLevelLow    ScoreLevel = "Low"
	ScoreLevelMedium ScoreLevel = "Medium"
	ScoreLevelHigh   ScoreLevel = "High"
)

// AllScoreLevels returns all score levels in ascending order
func AllScoreLevels() []ScoreLevel {
	return []ScoreLevel{
		ScoreLevelLow,
		ScoreLevelMedium,
		ScoreLevelHigh,
	}
}

// IsValid checks if the score level is valid
func (s ScoreLevel) IsValid() bool {
	switch s {
	case ScoreLevelLow,
		ScoreLevelMedium,
		ScoreLevelHigh:
		return true
	default:
		return false
	}
}

// Rank returns 0, 1, 2 for Low, Medium, High and -1 for an invalid level
func (s ScoreLevel) Rank() int {
	switch s {
	case ScoreLevelLow:
		return 0
	case ScoreLevelMedium:
		return 1
	case ScoreLevelHigh:
		return 2
	default:
		return -1
	}
}

// String returns the string representation of the score level
func (s ScoreLevel) String() string {
	return string(s)
}

// ParseScoreLevel parses a string into a ScoreLevel
func ParseScoreLevel(s string) (ScoreLevel, error) {
	level := ScoreLevel(s)
	if !level.IsValid() {
		return "", goerr.New("invalid score level", goerr.V("level", s))
	}
	return level, nil
}
