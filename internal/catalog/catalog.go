// Package catalog holds the game and concept records the engine reads from
// the catalog service.
package catalog

import (
	"errors"
	"sort"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrConceptNotFound = errors.New("concept not found")
)

type Game struct {
	ID           int64  `json:"id" db:"id"`
	ConceptID    *int64 `json:"concept_id" db:"concept_id"`
	Title        string `json:"title" db:"title"`
	Platform     string `json:"platform" db:"platform"`
	IsShovelware bool   `json:"is_shovelware" db:"is_shovelware"`
}

// Concept groups the releases of one title across platforms.
type Concept struct {
	ID        int64    `json:"id" db:"id"`
	Title     string   `json:"title" db:"title"`
	Genres    []string `json:"genres" db:"genres"`
	Subgenres []string `json:"subgenres" db:"subgenres"`
}

func (c *Concept) HasGenre(key string) bool {
	for _, g := range c.Genres {
		if g == key {
			return true
		}
	}
	return false
}

// IDSet is a set of game or concept ids.
type IDSet map[int64]struct{}

func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	s.Add(ids...)
	return s
}

func (s IDSet) Add(ids ...int64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the ids in ascending order.
func (s IDSet) Slice() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
