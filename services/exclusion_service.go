package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"platChallengesAPI/internal/catalog"
	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/logger"
	"platChallengesAPI/internal/telemetry"
)

var tracer = telemetry.Tracer("platChallengesAPI/services")

type ExclusionService struct {
	trophies TrophyStore
	graph    SiblingGraph
	log      *logger.Logger
}

func NewExclusionService(trophies TrophyStore, graph SiblingGraph, log *logger.Logger) *ExclusionService {
	return &ExclusionService{
		trophies: trophies,
		graph:    graph,
		log:      log.With("service", "ExclusionService"),
	}
}

// ExclusionSet returns the game ids (letter) or concept ids (genre) the
// profile may not assign. Day challenges have no assignments and get an empty
// set.
//
// The base set is expanded by exactly two one-hop passes, content siblings
// and family siblings, each over the base set only.
func (s *ExclusionService) ExclusionSet(ctx context.Context, profileID uuid.UUID, typ challenge.Type) (catalog.IDSet, error) {
	ctx, span := tracer.Start(ctx, "ExclusionService.ExclusionSet", trace.WithAttributes(
		attribute.String("profile_id", profileID.String()),
		attribute.String("type", string(typ)),
	))
	defer span.End()

	if typ == challenge.TypeDay {
		return catalog.NewIDSet(), nil
	}

	played, err := s.trophies.PlayedGames(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load played games: %w", err)
	}
	if len(played) == 0 {
		return catalog.NewIDSet(), nil
	}

	base := catalog.NewIDSet()
	content, family := s.graph.GameContentSiblings, s.graph.GameFamilySiblings
	switch typ {
	case challenge.TypeLetter:
		for _, g := range played {
			if g.ExcludesGame() {
				base.Add(g.GameID)
			}
		}
	case challenge.TypeGenre:
		for _, g := range played {
			if g.ExcludesConcept() {
				base.Add(*g.ConceptID)
			}
		}
		content, family = s.graph.ConceptContentSiblings, s.graph.ConceptFamilySiblings
	default:
		return nil, fmt.Errorf("unknown challenge type %q", typ)
	}
	if len(base) == 0 {
		return base, nil
	}

	ids := base.Slice()
	contentIDs, err := content(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to expand content siblings: %w", err)
	}
	familyIDs, err := family(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to expand family siblings: %w", err)
	}

	out := catalog.NewIDSet(ids...)
	out.Add(contentIDs...)
	out.Add(familyIDs...)

	span.SetAttributes(attribute.Int("base", len(base)), attribute.Int("excluded", len(out)))
	s.log.Debug("Exclusion set computed",
		"profile_id", profileID, "type", typ, "base", len(base), "excluded", len(out))
	return out, nil
}
