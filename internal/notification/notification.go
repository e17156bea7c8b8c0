package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationChallengeCompleted NotificationType = "challenge_completed"
	NotificationAchievement        NotificationType = "achievement"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	ProfileID uuid.UUID        `json:"profile_id" db:"profile_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	Data      map[string]any   `json:"data" db:"data"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
