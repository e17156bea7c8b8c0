package achievement

import (
	"time"

	"github.com/google/uuid"

	"platChallengesAPI/internal/challenge"
)

type CriteriaType string

const (
	CriteriaLetterChallenges   CriteriaType = "letter_challenges"
	CriteriaDayChallenges      CriteriaType = "day_challenges"
	CriteriaGenreChallenges    CriteriaType = "genre_challenges"
	CriteriaCalendarDaysFilled CriteriaType = "calendar_days_filled"
)

// ChallengeCriteria maps a challenge type to the criteria counting how many
// challenges of that type the profile has completed.
func ChallengeCriteria(t challenge.Type) CriteriaType {
	switch t {
	case challenge.TypeLetter:
		return CriteriaLetterChallenges
	case challenge.TypeDay:
		return CriteriaDayChallenges
	case challenge.TypeGenre:
		return CriteriaGenreChallenges
	}
	return ""
}

type Achievement struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Description   string       `json:"description" db:"description"`
	Icon          string       `json:"icon" db:"icon"`
	CriteriaType  CriteriaType `json:"criteria_type" db:"criteria_type"`
	CriteriaValue int          `json:"criteria_value" db:"criteria_value"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// Reached reports whether progress meets the achievement's threshold.
func (a *Achievement) Reached(progress int) bool {
	return a.CriteriaValue > 0 && progress >= a.CriteriaValue
}

type ProfileAchievement struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ProfileID     uuid.UUID `json:"profile_id" db:"profile_id"`
	AchievementID uuid.UUID `json:"achievement_id" db:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// AchievementWithStatus is an achievement as seen by one profile.
type AchievementWithStatus struct {
	Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}
