package challenge

import "platChallengesAPI/internal/subgenre"

// The Recount functions are the only source of challenge counters. Callers
// pass the current slot rows and persist the result with Challenge.Apply.

func RecountLetter(slots []*LetterSlot) Counters {
	var c Counters
	for _, s := range slots {
		if s.GameID != nil {
			c.Filled++
		}
		if s.IsCompleted {
			c.Completed++
		}
	}
	return c
}

// RecountDay counts filled days. A day is filled only by an earned
// platinum, so filled and completed are the same number.
func RecountDay(slots []*DaySlot) Counters {
	var c Counters
	for _, s := range slots {
		if s.IsFilled {
			c.Filled++
		}
	}
	c.Completed = c.Filled
	return c
}

func RecountGenre(slots []*GenreSlot, bonus []*BonusSlot, r *subgenre.Resolver) Counters {
	var c Counters
	for _, s := range slots {
		if s.ConceptID != nil {
			c.Filled++
		}
		if s.IsCompleted {
			c.Completed++
		}
	}
	c.Bonus = len(bonus)
	c.Subgenres = len(r.Status(Contributions(slots, bonus)))
	return c
}

// Contributions collects the subgenre inputs of every non-empty genre and
// bonus slot.
func Contributions(slots []*GenreSlot, bonus []*BonusSlot) []subgenre.Contribution {
	out := make([]subgenre.Contribution, 0, len(slots)+len(bonus))
	for _, s := range slots {
		if s.ConceptID == nil {
			continue
		}
		out = append(out, subgenre.Contribution{Tags: s.ConceptSubgenres, Completed: s.IsCompleted})
	}
	for _, b := range bonus {
		out = append(out, subgenre.Contribution{Tags: b.ConceptSubgenres, Completed: b.IsCompleted})
	}
	return out
}
