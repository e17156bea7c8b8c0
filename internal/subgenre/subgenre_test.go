package subgenre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMergesAndDropsUnknown(t *testing.T) {
	r := NewResolver(nil)

	got := r.Resolve([]string{"Rogue-lite", "Metroidvania", "Souls-like", "Open World", "N/A", "", "roguelike"})

	assert.Equal(t, []string{"METROIDVANIA", "ROGUELIKE", "SOULSLIKE"}, got)
}

func TestResolveExtraMerges(t *testing.T) {
	r := NewResolver(map[string]string{
		"Boomer Shooter": "FPS",
		"Cozy":           "NOT_A_KEY",
	})

	assert.Equal(t, []string{"FPS"}, r.Resolve([]string{"boomer shooter", "Cozy"}))
}

func TestResolvePlaceholdersOnly(t *testing.T) {
	r := NewResolver(nil)

	assert.Empty(t, r.Resolve([]string{"N/A", "none", "Not Applicable", "  "}))
}

func TestStatusPlattedWinsRegardlessOfOrder(t *testing.T) {
	r := NewResolver(nil)
	assigned := Contribution{Tags: []string{"Roguelike"}}
	platted := Contribution{Tags: []string{"roguelite"}, Completed: true}

	forward := r.Status([]Contribution{assigned, platted})
	backward := r.Status([]Contribution{platted, assigned})

	assert.Equal(t, StatusPlatted, forward["ROGUELIKE"])
	assert.Equal(t, forward, backward)
}

func TestStatusTriState(t *testing.T) {
	r := NewResolver(nil)

	status := r.Status([]Contribution{
		{Tags: []string{"JRPG", "Dungeon Crawler"}},
		{Tags: []string{"Dungeon-Crawler", "Stealth"}, Completed: true},
		{Tags: []string{"N/A"}, Completed: true},
	})

	assert.Equal(t, map[string]Status{
		"JRPG":            StatusAssigned,
		"DUNGEON_CRAWLER": StatusPlatted,
		"STEALTH":         StatusPlatted,
	}, status)
	_, collected := status["METROIDVANIA"]
	assert.False(t, collected)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Beat 'em Up", "BEAT_EM_UP"},
		{"  rogue -- lite ", "ROGUE_LITE"},
		{"N/A", "N_A"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.in))
		})
	}
}
