package profile

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("profile not found")

type Profile struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ClerkID   string    `json:"clerk_id" db:"clerk_id"`
	OnlineID  string    `json:"online_id" db:"online_id"`
	Timezone  string    `json:"timezone" db:"timezone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Location resolves the profile's IANA time zone. An empty or unknown name
// yields UTC and ok=false.
func (p *Profile) Location() (loc *time.Location, ok bool) {
	if p == nil || p.Timezone == "" {
		return time.UTC, false
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}
