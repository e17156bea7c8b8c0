package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"platChallengesAPI/internal/catalog"
	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/profile"
	"platChallengesAPI/internal/trophy"
)

//go:generate mockgen -destination=mock_trophy_store_test.go -package=services platChallengesAPI/services TrophyStore

// TrophyStore reads the trophy history written by the sync pipeline. Every
// query skips shovelware games; the qualifying queries also skip trophies
// the user has hidden.
type TrophyStore interface {
	// PlatinumEarned returns the subset of gameIDs the profile holds the
	// platinum for, in one round trip.
	PlatinumEarned(ctx context.Context, profileID uuid.UUID, gameIDs []int64) (catalog.IDSet, error)
	QualifyingTrophiesSince(ctx context.Context, profileID uuid.UUID, since time.Time) (bool, error)
	// QualifyingTrophyHistory is ordered earliest first.
	QualifyingTrophyHistory(ctx context.Context, profileID uuid.UUID) ([]trophy.Earned, error)
	PlayedGames(ctx context.Context, profileID uuid.UUID) ([]trophy.PlayedGame, error)
}

// SiblingGraph answers one-hop adjacency lookups. Content siblings share a
// content grouping; family siblings are re-releases and remasters under the
// same publisher family. Results may include the input ids.
type SiblingGraph interface {
	GameContentSiblings(ctx context.Context, gameIDs []int64) ([]int64, error)
	GameFamilySiblings(ctx context.Context, gameIDs []int64) ([]int64, error)
	ConceptContentSiblings(ctx context.Context, conceptIDs []int64) ([]int64, error)
	ConceptFamilySiblings(ctx context.Context, conceptIDs []int64) ([]int64, error)
}

type Catalog interface {
	Game(ctx context.Context, id int64) (*catalog.Game, error)
	Concept(ctx context.Context, id int64) (*catalog.Concept, error)
	// GamesForConcepts maps each concept to its non-shovelware games.
	GamesForConcepts(ctx context.Context, conceptIDs []int64) (map[int64][]int64, error)
}

type ProfileStore interface {
	Profile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	ProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error)
}

// CompletionNotifier receives the completion event, once per challenge.
type CompletionNotifier interface {
	ChallengeCompleted(ctx context.Context, ch *challenge.Challenge) error
}

type MilestoneEvaluator interface {
	EvaluateChallengeMilestones(ctx context.Context, profileID uuid.UUID, typ challenge.Type) error
}

// Locker guards a key for ttl. Acquire fails with lock.ErrNotAcquired when
// someone else holds it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
