package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		want     string
		ok       bool
	}{
		{"empty falls back to utc", "", "UTC", false},
		{"unknown falls back to utc", "Mars/Olympus_Mons", "UTC", false},
		{"iana name", "Europe/Sofia", "Europe/Sofia", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{Timezone: tt.timezone}
			loc, ok := p.Location()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, loc.String())
		})
	}
}

func TestLocationNilProfile(t *testing.T) {
	var p *Profile
	loc, ok := p.Location()
	assert.False(t, ok)
	assert.Equal(t, time.UTC, loc)
}
