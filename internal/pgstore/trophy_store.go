package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"platChallengesAPI/internal/catalog"
	"platChallengesAPI/internal/trophy"
)

// TrophyStore reads the trophy tables maintained by the sync pipeline. A
// qualifying trophy is an earned platinum on a non-shovelware game that the
// user has not hidden from their own list.
type TrophyStore struct {
	db *pgxpool.Pool
}

func NewTrophyStore(db *pgxpool.Pool) *TrophyStore {
	return &TrophyStore{db: db}
}

const qualifyingJoin = `
	FROM earned_trophies et
	JOIN trophies t ON t.id = et.trophy_id
	JOIN games g ON g.id = t.game_id
	WHERE et.profile_id = $1
	  AND t.trophy_type = 'platinum'
	  AND NOT et.user_hidden
	  AND NOT g.is_shovelware`

func (s *TrophyStore) PlatinumEarned(ctx context.Context, profileID uuid.UUID, gameIDs []int64) (catalog.IDSet, error) {
	earned := catalog.NewIDSet()
	if len(gameIDs) == 0 {
		return earned, nil
	}

	rows, err := s.db.Query(ctx, `SELECT DISTINCT t.game_id`+qualifyingJoin+` AND t.game_id = ANY($2)`, profileID, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query platinums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan platinum: %w", err)
		}
		earned.Add(id)
	}
	return earned, rows.Err()
}

func (s *TrophyStore) QualifyingTrophiesSince(ctx context.Context, profileID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1`+qualifyingJoin+` AND et.earned_at > $2)`, profileID, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check new trophies: %w", err)
	}
	return exists, nil
}

func (s *TrophyStore) QualifyingTrophyHistory(ctx context.Context, profileID uuid.UUID) ([]trophy.Earned, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.game_id, g.concept_id, et.earned_at`+qualifyingJoin+`
		ORDER BY et.earned_at ASC, t.game_id ASC
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trophy history: %w", err)
	}
	defer rows.Close()

	var history []trophy.Earned
	for rows.Next() {
		var e trophy.Earned
		if err := rows.Scan(&e.GameID, &e.ConceptID, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trophy: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

// PlayedGames summarises every non-shovelware game the profile has a progress
// row for. The base ratio covers the whole base group, hidden or not.
func (s *TrophyStore) PlayedGames(ctx context.Context, profileID uuid.UUID) ([]trophy.PlayedGame, error) {
	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.concept_id,
		       COUNT(et.trophy_id) FILTER (WHERE t.is_base) AS base_earned,
		       COUNT(t.id) FILTER (WHERE t.is_base) AS base_total,
		       pg.progress,
		       COALESCE(BOOL_OR(t.trophy_type = 'platinum' AND et.trophy_id IS NOT NULL), FALSE) AS has_platinum
		FROM profile_games pg
		JOIN games g ON g.id = pg.game_id
		LEFT JOIN trophies t ON t.game_id = g.id
		LEFT JOIN earned_trophies et ON et.trophy_id = t.id AND et.profile_id = pg.profile_id
		WHERE pg.profile_id = $1 AND NOT g.is_shovelware
		GROUP BY g.id, g.concept_id, pg.progress
		ORDER BY g.id
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query played games: %w", err)
	}
	defer rows.Close()

	var played []trophy.PlayedGame
	for rows.Next() {
		var p trophy.PlayedGame
		if err := rows.Scan(&p.GameID, &p.ConceptID, &p.BaseEarned, &p.BaseTotal, &p.Progress, &p.HasPlatinum); err != nil {
			return nil, fmt.Errorf("failed to scan played game: %w", err)
		}
		played = append(played, p)
	}
	return played, rows.Err()
}
