package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"platChallengesAPI/internal/catalog"
)

type CatalogStore struct {
	db *pgxpool.Pool
}

func NewCatalogStore(db *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) Game(ctx context.Context, id int64) (*catalog.Game, error) {
	g := &catalog.Game{}
	err := s.db.QueryRow(ctx, `
		SELECT id, concept_id, title, platform, is_shovelware
		FROM games
		WHERE id = $1
	`, id).Scan(&g.ID, &g.ConceptID, &g.Title, &g.Platform, &g.IsShovelware)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

func (s *CatalogStore) Concept(ctx context.Context, id int64) (*catalog.Concept, error) {
	c := &catalog.Concept{}
	err := s.db.QueryRow(ctx, `
		SELECT id, title, genres, subgenres
		FROM concepts
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Title, &c.Genres, &c.Subgenres)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrConceptNotFound
		}
		return nil, fmt.Errorf("failed to get concept: %w", err)
	}
	return c, nil
}

func (s *CatalogStore) GamesForConcepts(ctx context.Context, conceptIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64)
	if len(conceptIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT concept_id, id
		FROM games
		WHERE concept_id = ANY($1) AND NOT is_shovelware
		ORDER BY concept_id, id
	`, conceptIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query concept games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var conceptID, gameID int64
		if err := rows.Scan(&conceptID, &gameID); err != nil {
			return nil, fmt.Errorf("failed to scan concept game: %w", err)
		}
		out[conceptID] = append(out[conceptID], gameID)
	}
	return out, rows.Err()
}

// SubgenreMerges loads the raw tag -> curated key rows maintained alongside
// the catalog.
func (s *CatalogStore) SubgenreMerges(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx, `SELECT raw, subgenre_key FROM subgenre_merges`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subgenre merges: %w", err)
	}
	defer rows.Close()

	merges := make(map[string]string)
	for rows.Next() {
		var raw, key string
		if err := rows.Scan(&raw, &key); err != nil {
			return nil, fmt.Errorf("failed to scan subgenre merge: %w", err)
		}
		merges[raw] = key
	}
	return merges, rows.Err()
}

// SiblingStore answers sibling lookups from the grouping columns on games and
// concepts. It backs the exclusion resolver when no graph database is
// configured.
type SiblingStore struct {
	db *pgxpool.Pool
}

func NewSiblingStore(db *pgxpool.Pool) *SiblingStore {
	return &SiblingStore{db: db}
}

func (s *SiblingStore) GameContentSiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return s.siblings(ctx, "games", "content_group_id", ids)
}

func (s *SiblingStore) GameFamilySiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return s.siblings(ctx, "games", "family_id", ids)
}

func (s *SiblingStore) ConceptContentSiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return s.siblings(ctx, "concepts", "content_group_id", ids)
}

func (s *SiblingStore) ConceptFamilySiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return s.siblings(ctx, "concepts", "family_id", ids)
}

// siblings returns every row sharing column with one of ids. table and column
// are constants from this file.
func (s *SiblingStore) siblings(ctx context.Context, table, column string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT sib.id
		FROM %[1]s src
		JOIN %[1]s sib ON sib.%[2]s = src.%[2]s
		WHERE src.id = ANY($1) AND src.%[2]s IS NOT NULL
	`, table, column)
	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s siblings by %s: %w", table, column, err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan sibling: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
