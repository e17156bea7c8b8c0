// Package subgenre maps raw catalog subgenre tags onto the curated vocabulary
// tracked by genre challenges and derives per-key collection status.
package subgenre

import (
	"sort"
	"strings"
)

// Curated subgenre keys with their display names.
var Curated = map[string]string{
	"ACTION_RPG":      "Action RPG",
	"ARENA_FIGHTER":   "Arena Fighter",
	"AUTO_BATTLER":    "Auto Battler",
	"BATTLE_ROYALE":   "Battle Royale",
	"BEAT_EM_UP":      "Beat 'em Up",
	"BULLET_HELL":     "Bullet Hell",
	"CARD_GAME":       "Card Game",
	"CITY_BUILDER":    "City Builder",
	"COLLECTATHON":    "Collectathon",
	"COSMIC_HORROR":   "Cosmic Horror",
	"CRPG":            "CRPG",
	"DATING_SIM":      "Dating Sim",
	"DUNGEON_CRAWLER": "Dungeon Crawler",
	"ENDLESS_RUNNER":  "Endless Runner",
	"EXTRACTION":      "Extraction Shooter",
	"FARMING_SIM":     "Farming Sim",
	"FPS":             "First-Person Shooter",
	"HACK_AND_SLASH":  "Hack and Slash",
	"HERO_SHOOTER":    "Hero Shooter",
	"HIDDEN_OBJECT":   "Hidden Object",
	"IMMERSIVE_SIM":   "Immersive Sim",
	"JRPG":            "JRPG",
	"KART_RACER":      "Kart Racer",
	"LOOTER_SHOOTER":  "Looter Shooter",
	"METROIDVANIA":    "Metroidvania",
	"MMO":             "MMO",
	"MOBA":            "MOBA",
	"MONSTER_TAMER":   "Monster Tamer",
	"MUSOU":           "Musou",
	"PARTY":           "Party",
	"POINT_AND_CLICK": "Point and Click",
	"PSYCHOLOGICAL":   "Psychological Horror",
	"ROGUELIKE":       "Roguelike",
	"SANDBOX":         "Sandbox",
	"SOULSLIKE":       "Soulslike",
	"STEALTH":         "Stealth",
	"SURVIVAL_HORROR": "Survival Horror",
	"TACTICAL_RPG":    "Tactical RPG",
	"TOWER_DEFENSE":   "Tower Defense",
	"TWIN_STICK":      "Twin-Stick Shooter",
	"WALKING_SIM":     "Walking Sim",
	"WESTERN_RPG":     "Western RPG",
}

// DefaultMerges folds common raw spellings into curated keys. Lookups are
// made on the normalized form of the raw tag (see normalize).
var DefaultMerges = map[string]string{
	"ACTION_ROLE_PLAYING":  "ACTION_RPG",
	"ARPG":                 "ACTION_RPG",
	"BEAT_EM_UPS":          "BEAT_EM_UP",
	"BRAWLER":              "BEAT_EM_UP",
	"SHMUP":                "BULLET_HELL",
	"SHOOT_EM_UP":          "BULLET_HELL",
	"DECKBUILDER":          "CARD_GAME",
	"DECK_BUILDER":         "CARD_GAME",
	"LOVECRAFTIAN":         "COSMIC_HORROR",
	"ISOMETRIC_RPG":        "CRPG",
	"VISUAL_NOVEL_DATING":  "DATING_SIM",
	"FIRST_PERSON_SHOOTER": "FPS",
	"JAPANESE_RPG":         "JRPG",
	"METROIDVANIAS":        "METROIDVANIA",
	"SEARCH_ACTION":        "METROIDVANIA",
	"MMORPG":               "MMO",
	"ROGUELITE":            "ROGUELIKE",
	"ROGUE_LITE":           "ROGUELIKE",
	"ROGUE_LIKE":           "ROGUELIKE",
	"SOULS_LIKE":           "SOULSLIKE",
	"SOULSBORNE":           "SOULSLIKE",
	"SRPG":                 "TACTICAL_RPG",
	"STRATEGY_RPG":         "TACTICAL_RPG",
	"TACTICS":              "TACTICAL_RPG",
	"WALKING_SIMULATOR":    "WALKING_SIM",
	"NARRATIVE_ADVENTURE":  "WALKING_SIM",
	"WRPG":                 "WESTERN_RPG",
}

// placeholders are raw values the catalog uses when a concept has no subgenre.
var placeholders = map[string]struct{}{
	"":               {},
	"N_A":            {},
	"NA":             {},
	"NONE":           {},
	"NOT_APPLICABLE": {},
	"UNKNOWN":        {},
}

// Status is the collection state of one curated key within a challenge. A key
// missing from a status map is uncollected.
type Status string

const (
	StatusAssigned Status = "assigned"
	StatusPlatted  Status = "platted"
)

// Contribution is one slot's input to the status reduction.
type Contribution struct {
	Tags      []string
	Completed bool
}

// Resolver turns raw tags into curated keys. The zero value is not usable;
// build one with NewResolver.
type Resolver struct {
	merges map[string]string
}

// NewResolver builds a resolver from DefaultMerges overlaid with extra merge
// rows (raw tag -> curated key). Rows whose target is not curated are ignored.
func NewResolver(extra map[string]string) *Resolver {
	merges := make(map[string]string, len(DefaultMerges)+len(extra))
	for raw, key := range DefaultMerges {
		merges[normalize(raw)] = key
	}
	for raw, key := range extra {
		key = normalize(key)
		if _, ok := Curated[key]; !ok {
			continue
		}
		merges[normalize(raw)] = key
	}
	return &Resolver{merges: merges}
}

// Resolve maps raw tags to a sorted, de-duplicated list of curated keys.
// Unknown tags and placeholders are dropped.
func (r *Resolver) Resolve(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		if key, ok := r.lookup(tag); ok {
			seen[key] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func (r *Resolver) lookup(tag string) (string, bool) {
	n := normalize(tag)
	if _, skip := placeholders[n]; skip {
		return "", false
	}
	if key, ok := r.merges[n]; ok {
		return key, true
	}
	if _, ok := Curated[n]; ok {
		return n, true
	}
	return "", false
}

// Status reduces slot contributions to a key -> status map. Platted is never
// downgraded, so the result does not depend on contribution order.
func (r *Resolver) Status(contribs []Contribution) map[string]Status {
	status := make(map[string]Status)
	for _, c := range contribs {
		for _, key := range r.Resolve(c.Tags) {
			if c.Completed {
				status[key] = StatusPlatted
				continue
			}
			if _, ok := status[key]; !ok {
				status[key] = StatusAssigned
			}
		}
	}
	return status
}

// normalize upper-cases a tag and collapses separators to underscores so
// "Rogue-lite", "rogue lite" and "ROGUE_LITE" compare equal.
func normalize(tag string) string {
	tag = strings.TrimSpace(strings.ToUpper(tag))
	tag = strings.ReplaceAll(tag, "'", "")
	var b strings.Builder
	b.Grow(len(tag))
	lastSep := false
	for _, r := range tag {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
				lastSep = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
