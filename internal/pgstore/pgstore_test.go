package pgstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/testutil"
)

func TestChallengeStoreLifecycle(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	profileID, _ := testutil.SeedProfile(t, pool, "Europe/Berlin")
	store := NewChallengeStore(pool)

	ch := challenge.New(profileID, challenge.TypeDay, "", time.Now().UTC())
	require.NoError(t, store.CreateChallenge(ctx, ch, challenge.NewSlotSet(ch)))

	days, err := store.DaySlots(ctx, ch.ID)
	require.NoError(t, err)
	assert.Len(t, days, challenge.CalendarDayCount)
	assert.Equal(t, challenge.MonthDay{Month: 1, Day: 1}, days[0].MonthDay())

	loaded, err := store.GetChallenge(ctx, ch.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.BackfilledAt)
	backfilled := time.Now().UTC().Truncate(time.Microsecond)
	ch.BackfilledAt = &backfilled
	require.NoError(t, store.SaveChallenge(ctx, ch))
	loaded, err = store.GetChallenge(ctx, ch.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.BackfilledAt)
	assert.True(t, backfilled.Equal(*loaded.BackfilledAt))

	second := challenge.New(profileID, challenge.TypeDay, "", time.Now().UTC())
	err = store.CreateChallenge(ctx, second, challenge.NewSlotSet(second))
	assert.ErrorIs(t, err, challenge.ErrActiveExists)

	active, err := store.HasActiveChallenge(ctx, profileID, challenge.TypeDay)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, store.DeleteChallenge(ctx, ch.ID))
	assert.ErrorIs(t, store.DeleteChallenge(ctx, ch.ID), challenge.ErrNotFound)
	require.NoError(t, store.CreateChallenge(ctx, second, challenge.NewSlotSet(second)))
}

func TestSaveChallengeGuardsCompletedRows(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	profileID, _ := testutil.SeedProfile(t, pool, "")
	store := NewChallengeStore(pool)

	ch := challenge.New(profileID, challenge.TypeLetter, "", time.Now().UTC())
	require.NoError(t, store.CreateChallenge(ctx, ch, challenge.NewSlotSet(ch)))

	before := ch.UpdatedAt
	ch.Apply(challenge.Counters{Filled: 26, Completed: 26})
	require.True(t, ch.MarkComplete(time.Now().UTC()))
	require.NoError(t, store.SaveChallenge(ctx, ch))
	assert.True(t, ch.UpdatedAt.After(before) || ch.UpdatedAt.Equal(before))

	ch.FilledCount = 3
	assert.ErrorIs(t, store.SaveChallenge(ctx, ch), challenge.ErrAlreadyComplete)

	stored, err := store.GetChallenge(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 26, stored.FilledCount)
	assert.True(t, stored.IsComplete)
}

func TestWithTxRollsBack(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	profileID, _ := testutil.SeedProfile(t, pool, "")
	store := NewChallengeStore(pool)
	gameID := testutil.SeedGame(t, pool, 1, "Astro Bot", 0, 4)

	ch := challenge.New(profileID, challenge.TypeLetter, "", time.Now().UTC())
	require.NoError(t, store.CreateChallenge(ctx, ch, challenge.NewSlotSet(ch)))

	err := store.WithTx(ctx, func(tx challenge.Store) error {
		slots, err := tx.LetterSlots(ctx, ch.ID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		slots[0].GameID = &gameID
		slots[0].AssignedAt = &now
		if err := tx.SaveLetterSlots(ctx, slots[:1]); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	slots, err := store.LetterSlots(ctx, ch.ID)
	require.NoError(t, err)
	assert.Nil(t, slots[0].GameID)
}

func TestDuplicateLetterAssignmentIsRejected(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	profileID, _ := testutil.SeedProfile(t, pool, "")
	store := NewChallengeStore(pool)
	gameID := testutil.SeedGame(t, pool, 2, "Astro Bot", 0, 0)

	ch := challenge.New(profileID, challenge.TypeLetter, "", time.Now().UTC())
	require.NoError(t, store.CreateChallenge(ctx, ch, challenge.NewSlotSet(ch)))

	slots, err := store.LetterSlots(ctx, ch.ID)
	require.NoError(t, err)
	slots[0].GameID = &gameID
	require.NoError(t, store.SaveLetterSlots(ctx, slots[:1]))
	slots[1].GameID = &gameID
	err = store.SaveLetterSlots(ctx, slots[1:2])
	assert.ErrorIs(t, err, challenge.ErrDuplicateAssignment)

	reloaded, err := store.LetterSlots(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "Astro Bot", reloaded[0].GameTitle)
}

func TestTrophyStoreQualifyingQueries(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	profileID, _ := testutil.SeedProfile(t, pool, "")
	trophies := NewTrophyStore(pool)

	concept := testutil.SeedConcept(t, pool, 10, "Persona 5", []string{"RPG"}, []string{"JRPG"})
	plat := testutil.SeedGame(t, pool, 11, "Persona 5", concept, 4)
	half := testutil.SeedGame(t, pool, 12, "Persona 5 Royal", concept, 4)
	shovel := testutil.SeedGame(t, pool, 13, "Shovel Game", 0, 0)
	_, err := pool.Exec(ctx, `UPDATE games SET is_shovelware = TRUE WHERE id = $1`, shovel)
	require.NoError(t, err)

	day := time.Date(2022, time.July, 4, 9, 0, 0, 0, time.UTC)
	testutil.Earn(t, pool, profileID, testutil.PlatinumTrophyID(plat), day)
	testutil.Earn(t, pool, profileID, testutil.PlatinumTrophyID(shovel), day.Add(time.Hour))
	testutil.Earn(t, pool, profileID, testutil.TrophyID(half, 1), day)
	testutil.Earn(t, pool, profileID, testutil.TrophyID(half, 2), day)
	testutil.Earn(t, pool, profileID, testutil.TrophyID(half, 3), day)

	earned, err := trophies.PlatinumEarned(ctx, profileID, []int64{plat, half, shovel})
	require.NoError(t, err)
	assert.Equal(t, []int64{plat}, earned.Slice())

	since, err := trophies.QualifyingTrophiesSince(ctx, profileID, day)
	require.NoError(t, err)
	assert.False(t, since, "shovelware platinum must not count")

	history, err := trophies.QualifyingTrophyHistory(ctx, profileID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, plat, history[0].GameID)
	require.NotNil(t, history[0].ConceptID)
	assert.Equal(t, concept, *history[0].ConceptID)

	played, err := trophies.PlayedGames(ctx, profileID)
	require.NoError(t, err)
	require.Len(t, played, 2)
	assert.True(t, played[0].HasPlatinum)
	// The platinum belongs to the base group too.
	assert.Equal(t, 3, played[1].BaseEarned)
	assert.Equal(t, 5, played[1].BaseTotal)
	assert.True(t, played[1].ExcludesGame())
}

func TestTrophyStoreHiddenIsPerUser(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	hider, _ := testutil.SeedProfile(t, pool, "")
	other, _ := testutil.SeedProfile(t, pool, "")
	trophies := NewTrophyStore(pool)

	game := testutil.SeedGame(t, pool, 31, "Bloodborne", 0, 3)
	day := time.Date(2021, time.March, 24, 20, 0, 0, 0, time.UTC)
	for _, profileID := range []uuid.UUID{hider, other} {
		testutil.Earn(t, pool, profileID, testutil.PlatinumTrophyID(game), day)
		testutil.Earn(t, pool, profileID, testutil.TrophyID(game, 1), day)
	}
	testutil.Hide(t, pool, hider, testutil.PlatinumTrophyID(game))
	testutil.Hide(t, pool, hider, testutil.TrophyID(game, 1))

	earned, err := trophies.PlatinumEarned(ctx, hider, []int64{game})
	require.NoError(t, err)
	assert.Empty(t, earned.Slice())
	history, err := trophies.QualifyingTrophyHistory(ctx, hider)
	require.NoError(t, err)
	assert.Empty(t, history)
	since, err := trophies.QualifyingTrophiesSince(ctx, hider, day.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, since)

	earned, err = trophies.PlatinumEarned(ctx, other, []int64{game})
	require.NoError(t, err)
	assert.Equal(t, []int64{game}, earned.Slice())
	history, err = trophies.QualifyingTrophyHistory(ctx, other)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, game, history[0].GameID)

	for _, profileID := range []uuid.UUID{hider, other} {
		played, err := trophies.PlayedGames(ctx, profileID)
		require.NoError(t, err)
		require.Len(t, played, 1)
		assert.Equal(t, 2, played[0].BaseEarned)
		assert.Equal(t, 4, played[0].BaseTotal)
	}
}

func TestSiblingStore(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	a := testutil.SeedGame(t, pool, 21, "A", 0, 0)
	b := testutil.SeedGame(t, pool, 22, "B", 0, 0)
	c := testutil.SeedGame(t, pool, 23, "C", 0, 0)
	_, err := pool.Exec(ctx, `UPDATE games SET content_group_id = 7 WHERE id IN ($1, $2)`, a, b)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE games SET family_id = 8 WHERE id IN ($1, $2)`, a, c)
	require.NoError(t, err)

	siblings := NewSiblingStore(pool)
	content, err := siblings.GameContentSiblings(ctx, []int64{a})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a, b}, content)

	family, err := siblings.GameFamilySiblings(ctx, []int64{b})
	require.NoError(t, err)
	assert.Empty(t, family)
}
