// Package testutil holds the database helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"platChallengesAPI/internal/database"
)

// Catalog rows seeded by tests use ids from this offset up, so cleanup never
// touches real catalog data.
const CatalogIDBase int64 = 9_000_000_000

// SetupTestDB connects to TEST_DATABASE_URL and applies migrations. The test
// is skipped when the variable is not set.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if _, err := database.Migrate(dbURL); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	t.Cleanup(func() { CleanupTestDB(t, pool) })
	return pool
}

// CleanupTestDB removes seeded profiles (cascading to their challenges and
// trophies) and seeded catalog rows, then closes the pool.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	if _, err := pool.Exec(ctx, `DELETE FROM profiles WHERE clerk_id LIKE 'test_%'`); err != nil {
		t.Logf("Warning: failed to cleanup test profiles: %v", err)
	}
	for _, table := range []string{"games", "concepts"} {
		if _, err := pool.Exec(ctx, `DELETE FROM `+table+` WHERE id >= $1`, CatalogIDBase); err != nil {
			t.Logf("Warning: failed to cleanup test %s: %v", table, err)
		}
	}
	pool.Close()
}

// SeedProfile inserts a profile with a unique test clerk id.
func SeedProfile(t *testing.T, pool *pgxpool.Pool, timezone string) (uuid.UUID, string) {
	t.Helper()
	clerkID := fmt.Sprintf("test_%s", uuid.NewString())
	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO profiles (clerk_id, online_id, timezone) VALUES ($1, $2, $3) RETURNING id
	`, clerkID, "tester", timezone).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}
	return id, clerkID
}

// SeedConcept inserts concept CatalogIDBase+n.
func SeedConcept(t *testing.T, pool *pgxpool.Pool, n int64, title string, genres, subgenres []string) int64 {
	t.Helper()
	id := CatalogIDBase + n
	_, err := pool.Exec(context.Background(), `
		INSERT INTO concepts (id, title, genres, subgenres) VALUES ($1, $2, $3, $4)
	`, id, title, genres, subgenres)
	if err != nil {
		t.Fatalf("Failed to seed concept: %v", err)
	}
	return id
}

// SeedGame inserts game CatalogIDBase+n with a base trophy list of baseTrophies
// plus a platinum. conceptID may be zero.
func SeedGame(t *testing.T, pool *pgxpool.Pool, n int64, title string, conceptID int64, baseTrophies int) int64 {
	t.Helper()
	ctx := context.Background()
	id := CatalogIDBase + n

	var concept *int64
	if conceptID != 0 {
		concept = &conceptID
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO games (id, concept_id, title, platform) VALUES ($1, $2, $3, 'PS5')
	`, id, concept, title); err != nil {
		t.Fatalf("Failed to seed game: %v", err)
	}

	// Trophy ids: game id * 100 + index; index 0 is the platinum.
	if _, err := pool.Exec(ctx, `
		INSERT INTO trophies (id, game_id, name, trophy_type) VALUES ($1, $2, 'Platinum', 'platinum')
	`, PlatinumTrophyID(id), id); err != nil {
		t.Fatalf("Failed to seed platinum: %v", err)
	}
	for i := 1; i <= baseTrophies; i++ {
		if _, err := pool.Exec(ctx, `
			INSERT INTO trophies (id, game_id, name, trophy_type) VALUES ($1, $2, $3, 'bronze')
		`, TrophyID(id, i), id, fmt.Sprintf("Trophy %d", i)); err != nil {
			t.Fatalf("Failed to seed trophy: %v", err)
		}
	}
	return id
}

func PlatinumTrophyID(gameID int64) int64 {
	return TrophyID(gameID, 0)
}

func TrophyID(gameID int64, index int) int64 {
	return gameID*100 + int64(index)
}

// Earn records an earned trophy and makes sure the game shows as played.
func Earn(t *testing.T, pool *pgxpool.Pool, profileID uuid.UUID, trophyID int64, at time.Time) {
	t.Helper()
	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		INSERT INTO earned_trophies (profile_id, trophy_id, earned_at) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, profileID, trophyID, at)
	if err != nil {
		t.Fatalf("Failed to seed earned trophy: %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO profile_games (profile_id, game_id)
		SELECT $1, game_id FROM trophies WHERE id = $2
		ON CONFLICT DO NOTHING
	`, profileID, trophyID)
	if err != nil {
		t.Fatalf("Failed to seed played game: %v", err)
	}
}

// Hide marks an earned trophy as hidden on the profile's own list.
func Hide(t *testing.T, pool *pgxpool.Pool, profileID uuid.UUID, trophyID int64) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		UPDATE earned_trophies SET user_hidden = TRUE WHERE profile_id = $1 AND trophy_id = $2
	`, profileID, trophyID)
	if err != nil {
		t.Fatalf("Failed to hide trophy: %v", err)
	}
}
