package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"platChallengesAPI/internal/challenge"
)

const challengeColumns = `
	id, profile_id, type, name, total_items, filled_count, completed_count,
	subgenre_count, bonus_count, cover_key, is_complete, completed_at,
	backfilled_at, is_deleted, created_at, updated_at`

// ChallengeStore is the pgx implementation of challenge.Store. A store
// returned to a WithTx callback is bound to that transaction.
type ChallengeStore struct {
	pool *pgxpool.Pool
	db   dbtx
}

func NewChallengeStore(pool *pgxpool.Pool) *ChallengeStore {
	return &ChallengeStore{pool: pool, db: pool}
}

func (s *ChallengeStore) WithTx(ctx context.Context, fn func(tx challenge.Store) error) error {
	return s.withTx(ctx, func(tx *ChallengeStore) error { return fn(tx) })
}

func (s *ChallengeStore) withTx(ctx context.Context, fn func(tx *ChallengeStore) error) error {
	// Already inside a transaction.
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&ChallengeStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateChallenge inserts the challenge and its full keyed slot set in one
// transaction.
func (s *ChallengeStore) CreateChallenge(ctx context.Context, ch *challenge.Challenge, slots challenge.SlotSet) error {
	return s.withTx(ctx, func(tx *ChallengeStore) error {
		_, err := tx.db.Exec(ctx, `
			INSERT INTO challenges (id, profile_id, type, name, total_items, cover_key, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, ch.ID, ch.ProfileID, ch.Type, ch.Name, ch.TotalItems, ch.CoverKey, ch.CreatedAt, ch.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err, "challenges_one_active_per_type") {
				return challenge.ErrActiveExists
			}
			return fmt.Errorf("failed to insert challenge: %w", err)
		}
		return tx.copySlots(ctx, slots)
	})
}

func (s *ChallengeStore) copySlots(ctx context.Context, slots challenge.SlotSet) error {
	var (
		table   string
		columns []string
		rows    [][]any
	)
	switch {
	case len(slots.Letters) > 0:
		table, columns = "letter_slots", []string{"id", "challenge_id", "letter"}
		for _, l := range slots.Letters {
			rows = append(rows, []any{l.ID, l.ChallengeID, l.Letter})
		}
	case len(slots.Days) > 0:
		table, columns = "day_slots", []string{"id", "challenge_id", "month", "day"}
		for _, d := range slots.Days {
			rows = append(rows, []any{d.ID, d.ChallengeID, int16(d.Month), int16(d.Day)})
		}
	case len(slots.Genres) > 0:
		table, columns = "genre_slots", []string{"id", "challenge_id", "genre"}
		for _, g := range slots.Genres {
			rows = append(rows, []any{g.ID, g.ChallengeID, g.Genre})
		}
	default:
		return nil
	}

	n, err := s.db.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", table, err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("failed to create %s: wrote %d of %d rows", table, n, len(rows))
	}
	return nil
}

func scanChallenge(row rowScanner) (*challenge.Challenge, error) {
	ch := &challenge.Challenge{}
	err := row.Scan(
		&ch.ID, &ch.ProfileID, &ch.Type, &ch.Name, &ch.TotalItems, &ch.FilledCount, &ch.CompletedCount,
		&ch.SubgenreCount, &ch.BonusCount, &ch.CoverKey, &ch.IsComplete, &ch.CompletedAt,
		&ch.BackfilledAt, &ch.IsDeleted, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *ChallengeStore) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	ch, err := scanChallenge(s.db.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, challenge.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}

func (s *ChallengeStore) HasActiveChallenge(ctx context.Context, profileID uuid.UUID, typ challenge.Type) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM challenges
			WHERE profile_id = $1 AND type = $2 AND NOT is_deleted AND NOT is_complete
		)
	`, profileID, typ).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active challenge: %w", err)
	}
	return exists, nil
}

func (s *ChallengeStore) ActiveChallenges(ctx context.Context, profileID uuid.UUID, typ challenge.Type) ([]*challenge.Challenge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE profile_id = $1 AND type = $2 AND NOT is_deleted AND NOT is_complete
		ORDER BY created_at ASC
	`, profileID, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to query active challenges: %w", err)
	}
	defer rows.Close()

	var out []*challenge.Challenge
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *ChallengeStore) CompletedChallengeCount(ctx context.Context, profileID uuid.UUID, typ challenge.Type) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM challenges
		WHERE profile_id = $1 AND type = $2 AND is_complete AND NOT is_deleted
	`, profileID, typ).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed challenges: %w", err)
	}
	return n, nil
}

// SaveChallenge only touches rows that are not complete yet, so a completed
// challenge can never be rewritten.
func (s *ChallengeStore) SaveChallenge(ctx context.Context, ch *challenge.Challenge) error {
	err := s.db.QueryRow(ctx, `
		UPDATE challenges
		SET filled_count = $2, completed_count = $3, subgenre_count = $4, bonus_count = $5,
		    cover_key = $6, is_complete = $7, completed_at = $8, backfilled_at = $9, updated_at = NOW()
		WHERE id = $1 AND NOT is_complete
		RETURNING updated_at
	`, ch.ID, ch.FilledCount, ch.CompletedCount, ch.SubgenreCount, ch.BonusCount,
		ch.CoverKey, ch.IsComplete, ch.CompletedAt, ch.BackfilledAt).Scan(&ch.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update challenge: %w", err)
	}

	var complete bool
	err = s.db.QueryRow(ctx, `SELECT is_complete FROM challenges WHERE id = $1`, ch.ID).Scan(&complete)
	if errors.Is(err, pgx.ErrNoRows) {
		return challenge.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load challenge state: %w", err)
	}
	return challenge.ErrAlreadyComplete
}

func (s *ChallengeStore) SetCoverKey(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := s.db.Exec(ctx, `UPDATE challenges SET cover_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("failed to set cover: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return challenge.ErrNotFound
	}
	return nil
}

func (s *ChallengeStore) DeleteChallenge(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE challenges SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return challenge.ErrNotFound
	}
	return nil
}

func (s *ChallengeStore) LetterSlots(ctx context.Context, challengeID uuid.UUID) ([]*challenge.LetterSlot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ls.id, ls.challenge_id, ls.letter, ls.game_id, COALESCE(g.title, ''),
		       ls.assigned_at, ls.is_completed, ls.completed_at
		FROM letter_slots ls
		LEFT JOIN games g ON g.id = ls.game_id
		WHERE ls.challenge_id = $1
		ORDER BY ls.letter
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query letter slots: %w", err)
	}
	defer rows.Close()

	var out []*challenge.LetterSlot
	for rows.Next() {
		l := &challenge.LetterSlot{}
		if err := rows.Scan(&l.ID, &l.ChallengeID, &l.Letter, &l.GameID, &l.GameTitle,
			&l.AssignedAt, &l.IsCompleted, &l.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan letter slot: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *ChallengeStore) DaySlots(ctx context.Context, challengeID uuid.UUID) ([]*challenge.DaySlot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, challenge_id, month, day, game_id, is_filled, filled_at, platinum_earned_at, plat_count
		FROM day_slots
		WHERE challenge_id = $1
		ORDER BY month, day
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query day slots: %w", err)
	}
	defer rows.Close()

	out := make([]*challenge.DaySlot, 0, challenge.CalendarDayCount)
	for rows.Next() {
		d := &challenge.DaySlot{}
		var month, day int16
		if err := rows.Scan(&d.ID, &d.ChallengeID, &month, &day, &d.GameID, &d.IsFilled,
			&d.FilledAt, &d.PlatinumEarnedAt, &d.PlatCount); err != nil {
			return nil, fmt.Errorf("failed to scan day slot: %w", err)
		}
		d.Month, d.Day = int(month), int(day)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *ChallengeStore) GenreSlots(ctx context.Context, challengeID uuid.UUID) ([]*challenge.GenreSlot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT gs.id, gs.challenge_id, gs.genre, gs.concept_id, gs.assigned_at,
		       gs.is_completed, gs.completed_at, COALESCE(c.subgenres, '{}')
		FROM genre_slots gs
		LEFT JOIN concepts c ON c.id = gs.concept_id
		WHERE gs.challenge_id = $1
		ORDER BY gs.genre
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query genre slots: %w", err)
	}
	defer rows.Close()

	var out []*challenge.GenreSlot
	for rows.Next() {
		g := &challenge.GenreSlot{}
		if err := rows.Scan(&g.ID, &g.ChallengeID, &g.Genre, &g.ConceptID, &g.AssignedAt,
			&g.IsCompleted, &g.CompletedAt, &g.ConceptSubgenres); err != nil {
			return nil, fmt.Errorf("failed to scan genre slot: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *ChallengeStore) BonusSlots(ctx context.Context, challengeID uuid.UUID) ([]*challenge.BonusSlot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.challenge_id, b.concept_id, b.assigned_at, b.is_completed, b.completed_at,
		       COALESCE(c.subgenres, '{}')
		FROM bonus_slots b
		LEFT JOIN concepts c ON c.id = b.concept_id
		WHERE b.challenge_id = $1
		ORDER BY b.assigned_at, b.id
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonus slots: %w", err)
	}
	defer rows.Close()

	var out []*challenge.BonusSlot
	for rows.Next() {
		b := &challenge.BonusSlot{}
		if err := rows.Scan(&b.ID, &b.ChallengeID, &b.ConceptID, &b.AssignedAt, &b.IsCompleted,
			&b.CompletedAt, &b.ConceptSubgenres); err != nil {
			return nil, fmt.Errorf("failed to scan bonus slot: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *ChallengeStore) SaveLetterSlots(ctx context.Context, slots []*challenge.LetterSlot) error {
	b := &pgx.Batch{}
	for _, l := range slots {
		b.Queue(`
			UPDATE letter_slots SET game_id = $2, assigned_at = $3, is_completed = $4, completed_at = $5
			WHERE id = $1
		`, l.ID, l.GameID, l.AssignedAt, l.IsCompleted, l.CompletedAt)
	}
	if err := execBatch(ctx, s.db, b); err != nil {
		if isUniqueViolation(err, "letter_slots_game_once") {
			return challenge.ErrDuplicateAssignment
		}
		return fmt.Errorf("failed to save letter slots: %w", err)
	}
	return nil
}

func (s *ChallengeStore) SaveDaySlots(ctx context.Context, slots []*challenge.DaySlot) error {
	b := &pgx.Batch{}
	for _, d := range slots {
		b.Queue(`
			UPDATE day_slots
			SET game_id = $2, is_filled = $3, filled_at = $4, platinum_earned_at = $5, plat_count = $6
			WHERE id = $1
		`, d.ID, d.GameID, d.IsFilled, d.FilledAt, d.PlatinumEarnedAt, d.PlatCount)
	}
	if err := execBatch(ctx, s.db, b); err != nil {
		return fmt.Errorf("failed to save day slots: %w", err)
	}
	return nil
}

func (s *ChallengeStore) SaveGenreSlots(ctx context.Context, slots []*challenge.GenreSlot) error {
	b := &pgx.Batch{}
	for _, g := range slots {
		b.Queue(`
			UPDATE genre_slots SET concept_id = $2, assigned_at = $3, is_completed = $4, completed_at = $5
			WHERE id = $1
		`, g.ID, g.ConceptID, g.AssignedAt, g.IsCompleted, g.CompletedAt)
	}
	if err := execBatch(ctx, s.db, b); err != nil {
		if isUniqueViolation(err, "genre_slots_concept_once") {
			return challenge.ErrDuplicateAssignment
		}
		return fmt.Errorf("failed to save genre slots: %w", err)
	}
	return nil
}

func (s *ChallengeStore) SaveBonusSlots(ctx context.Context, slots []*challenge.BonusSlot) error {
	b := &pgx.Batch{}
	for _, bs := range slots {
		b.Queue(`UPDATE bonus_slots SET is_completed = $2, completed_at = $3 WHERE id = $1`,
			bs.ID, bs.IsCompleted, bs.CompletedAt)
	}
	if err := execBatch(ctx, s.db, b); err != nil {
		return fmt.Errorf("failed to save bonus slots: %w", err)
	}
	return nil
}

func (s *ChallengeStore) InsertBonusSlot(ctx context.Context, slot *challenge.BonusSlot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bonus_slots (id, challenge_id, concept_id, assigned_at)
		VALUES ($1, $2, $3, $4)
	`, slot.ID, slot.ChallengeID, slot.ConceptID, slot.AssignedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return challenge.ErrDuplicateAssignment
		}
		return fmt.Errorf("failed to insert bonus slot: %w", err)
	}
	return nil
}

func (s *ChallengeStore) DeleteBonusSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM bonus_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bonus slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return challenge.ErrNotFound
	}
	return nil
}
