package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"platChallengesAPI/internal/catalog"
	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/lock"
	"platChallengesAPI/internal/logger"
	"platChallengesAPI/internal/subgenre"
	"platChallengesAPI/internal/trophy"
)

const defaultLockTTL = 2 * time.Minute

// ProgressService turns imported trophies into slot completions and keeps the
// challenge counters derived from slot rows.
type ProgressService struct {
	store      challenge.Store
	trophies   TrophyStore
	catalog    Catalog
	profiles   ProfileStore
	resolver   *subgenre.Resolver
	notifier   CompletionNotifier
	milestones MilestoneEvaluator
	locker     Locker
	lockTTL    time.Duration
	now        func() time.Time
	log        *logger.Logger
}

func NewProgressService(store challenge.Store, trophies TrophyStore, cat Catalog, profiles ProfileStore, resolver *subgenre.Resolver, log *logger.Logger) *ProgressService {
	return &ProgressService{
		store:    store,
		trophies: trophies,
		catalog:  cat,
		profiles: profiles,
		resolver: resolver,
		lockTTL:  defaultLockTTL,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With("service", "ProgressService"),
	}
}

func (s *ProgressService) SetNotifier(n CompletionNotifier) {
	s.notifier = n
}

func (s *ProgressService) SetMilestones(m MilestoneEvaluator) {
	s.milestones = m
}

// SetLocker enables the per-(profile, type) recalculation lock.
func (s *ProgressService) SetLocker(l Locker, ttl time.Duration) {
	s.locker = l
	if ttl > 0 {
		s.lockTTL = ttl
	}
}

// RecalculateAll runs Recalculate for every challenge type, letter then genre
// then day. A failing type does not stop the others.
func (s *ProgressService) RecalculateAll(ctx context.Context, profileID uuid.UUID) error {
	var errs []error
	for _, typ := range challenge.Types {
		if err := s.Recalculate(ctx, profileID, typ); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", typ, err))
		}
	}
	return errors.Join(errs...)
}

// Recalculate refreshes every active challenge of typ for the profile, then
// evaluates milestones. A failure on one challenge is logged and the next
// challenge still runs; the next sync heals it.
func (s *ProgressService) Recalculate(ctx context.Context, profileID uuid.UUID, typ challenge.Type) error {
	ctx, span := tracer.Start(ctx, "ProgressService.Recalculate", trace.WithAttributes(
		attribute.String("profile_id", profileID.String()),
		attribute.String("type", string(typ)),
	))
	defer span.End()

	release, err := s.acquire(ctx, profileID, typ)
	if err != nil {
		return err
	}
	defer release()

	challenges, err := s.store.ActiveChallenges(ctx, profileID, typ)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to load active challenges: %w", err)
	}

	for _, ch := range challenges {
		if err := s.recalculate(ctx, ch); err != nil {
			s.log.Error("Recalculation failed",
				"profile_id", profileID, "challenge_id", ch.ID, "type", typ, "error", err)
			span.RecordError(err)
		}
	}

	s.evaluateMilestones(ctx, profileID, typ)
	return nil
}

// RecalculateChallenge refreshes a single challenge.
func (s *ProgressService) RecalculateChallenge(ctx context.Context, challengeID uuid.UUID) error {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return ErrChallengeNotFound
		}
		return fmt.Errorf("failed to load challenge: %w", err)
	}

	release, err := s.acquire(ctx, ch.ProfileID, ch.Type)
	if err != nil {
		return err
	}
	defer release()

	return s.recalculate(ctx, ch)
}

func (s *ProgressService) acquire(ctx context.Context, profileID uuid.UUID, typ challenge.Type) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := fmt.Sprintf("challenge-recalc:%s:%s", profileID, typ)
	release, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrRecalculationInProgress
		}
		return nil, err
	}
	return func() {
		// The request context may already be cancelled.
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(relCtx); err != nil {
			s.log.Warn("Failed to release recalculation lock", "key", key, "error", err)
		}
	}, nil
}

func (s *ProgressService) recalculate(ctx context.Context, ch *challenge.Challenge) error {
	if !ch.IsActive() {
		return nil
	}

	start := time.Now()
	var err error
	switch ch.Type {
	case challenge.TypeLetter:
		err = s.recalculateLetter(ctx, ch)
	case challenge.TypeGenre:
		err = s.recalculateGenre(ctx, ch)
	case challenge.TypeDay:
		err = s.recalculateDay(ctx, ch)
	default:
		err = fmt.Errorf("unknown challenge type %q", ch.Type)
	}
	recalculationDuration.WithLabelValues(string(ch.Type)).Observe(time.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	recalculationsTotal.WithLabelValues(string(ch.Type), result).Inc()
	return err
}

func (s *ProgressService) recalculateLetter(ctx context.Context, ch *challenge.Challenge) error {
	slots, err := s.store.LetterSlots(ctx, ch.ID)
	if err != nil {
		return fmt.Errorf("failed to load letter slots: %w", err)
	}

	var pending []*challenge.LetterSlot
	gameIDs := catalog.NewIDSet()
	for _, slot := range slots {
		if slot.GameID != nil && !slot.IsCompleted {
			pending = append(pending, slot)
			gameIDs.Add(*slot.GameID)
		}
	}

	var changed []*challenge.LetterSlot
	if len(pending) > 0 {
		earned, err := s.trophies.PlatinumEarned(ctx, ch.ProfileID, gameIDs.Slice())
		if err != nil {
			return fmt.Errorf("failed to check platinums: %w", err)
		}
		now := s.now()
		for _, slot := range pending {
			if earned.Has(*slot.GameID) {
				slot.IsCompleted = true
				slot.CompletedAt = &now
				changed = append(changed, slot)
			}
		}
	}

	return s.commit(ctx, ch, len(changed), func(tx challenge.Store) error {
		if len(changed) == 0 {
			return nil
		}
		return tx.SaveLetterSlots(ctx, changed)
	})
}

func (s *ProgressService) recalculateGenre(ctx context.Context, ch *challenge.Challenge) error {
	slots, err := s.store.GenreSlots(ctx, ch.ID)
	if err != nil {
		return fmt.Errorf("failed to load genre slots: %w", err)
	}
	bonus, err := s.store.BonusSlots(ctx, ch.ID)
	if err != nil {
		return fmt.Errorf("failed to load bonus slots: %w", err)
	}

	concepts := catalog.NewIDSet()
	for _, slot := range slots {
		if slot.ConceptID != nil && !slot.IsCompleted {
			concepts.Add(*slot.ConceptID)
		}
	}
	for _, b := range bonus {
		if !b.IsCompleted {
			concepts.Add(b.ConceptID)
		}
	}

	var changedSlots []*challenge.GenreSlot
	var changedBonus []*challenge.BonusSlot
	if len(concepts) > 0 {
		done, err := s.completedConcepts(ctx, ch.ProfileID, concepts.Slice())
		if err != nil {
			return err
		}
		now := s.now()
		for _, slot := range slots {
			if slot.ConceptID != nil && !slot.IsCompleted && done.Has(*slot.ConceptID) {
				slot.IsCompleted = true
				slot.CompletedAt = &now
				changedSlots = append(changedSlots, slot)
			}
		}
		for _, b := range bonus {
			if !b.IsCompleted && done.Has(b.ConceptID) {
				b.IsCompleted = true
				b.CompletedAt = &now
				changedBonus = append(changedBonus, b)
			}
		}
	}

	return s.commit(ctx, ch, len(changedSlots)+len(changedBonus), func(tx challenge.Store) error {
		if len(changedSlots) > 0 {
			if err := tx.SaveGenreSlots(ctx, changedSlots); err != nil {
				return err
			}
		}
		if len(changedBonus) > 0 {
			return tx.SaveBonusSlots(ctx, changedBonus)
		}
		return nil
	})
}

// completedConcepts expands each concept to all of its games and returns the
// concepts with a platinum on any of them, using a single platinum query.
// Concepts no longer in the catalog have no games and never complete.
func (s *ProgressService) completedConcepts(ctx context.Context, profileID uuid.UUID, conceptIDs []int64) (catalog.IDSet, error) {
	gamesByConcept, err := s.catalog.GamesForConcepts(ctx, conceptIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load concept games: %w", err)
	}

	games := catalog.NewIDSet()
	for _, ids := range gamesByConcept {
		games.Add(ids...)
	}
	done := catalog.NewIDSet()
	if len(games) == 0 {
		return done, nil
	}

	earned, err := s.trophies.PlatinumEarned(ctx, profileID, games.Slice())
	if err != nil {
		return nil, fmt.Errorf("failed to check platinums: %w", err)
	}
	for conceptID, ids := range gamesByConcept {
		for _, id := range ids {
			if earned.Has(id) {
				done.Add(conceptID)
				break
			}
		}
	}
	return done, nil
}

// recalculateDay skips the rescan when nothing qualifying arrived since the
// last save. A calendar that was never backfilled is always rescanned.
func (s *ProgressService) recalculateDay(ctx context.Context, ch *challenge.Challenge) error {
	if ch.BackfilledAt != nil {
		fresh, err := s.trophies.QualifyingTrophiesSince(ctx, ch.ProfileID, ch.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to check for new trophies: %w", err)
		}
		if !fresh {
			return nil
		}
	}

	_, err := s.fillDays(ctx, ch)
	return err
}

// Backfill fills a freshly created day challenge from the whole qualifying
// history and then evaluates milestones.
func (s *ProgressService) Backfill(ctx context.Context, ch *challenge.Challenge) error {
	ctx, span := tracer.Start(ctx, "ProgressService.Backfill", trace.WithAttributes(
		attribute.String("challenge_id", ch.ID.String()),
	))
	defer span.End()

	if ch.Type != challenge.TypeDay {
		return ErrChallengeTypeMismatch
	}
	if !ch.IsActive() {
		return nil
	}

	bucketed, err := s.fillDays(ctx, ch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	backfillTrophiesTotal.Add(float64(bucketed))
	span.SetAttributes(attribute.Int("trophies", bucketed), attribute.Int("filled", ch.FilledCount))

	s.log.Info("Calendar backfilled",
		"profile_id", ch.ProfileID, "challenge_id", ch.ID, "trophies", bucketed, "filled", ch.FilledCount)

	s.evaluateMilestones(ctx, ch.ProfileID, challenge.TypeDay)
	return nil
}

// fillDays rescans the qualifying history, buckets it by the profile's local
// calendar day and applies the buckets to the day slots. It returns the number
// of trophies that landed in a bucket.
func (s *ProgressService) fillDays(ctx context.Context, ch *challenge.Challenge) (int, error) {
	p, err := s.profiles.Profile(ctx, ch.ProfileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load profile: %w", err)
	}
	loc, ok := p.Location()
	if !ok && p.Timezone != "" {
		s.log.Warn("Unknown profile time zone, using UTC", "profile_id", p.ID, "timezone", p.Timezone)
	}

	history, err := s.trophies.QualifyingTrophyHistory(ctx, ch.ProfileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load trophy history: %w", err)
	}
	slots, err := s.store.DaySlots(ctx, ch.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load day slots: %w", err)
	}

	buckets := trophy.BucketByDay(history, loc)
	changed, filled := applyDayBuckets(slots, buckets, s.now())

	bucketed := 0
	for _, b := range buckets {
		bucketed += b.Count
	}

	backfilledAt := ch.BackfilledAt
	if backfilledAt == nil {
		now := s.now()
		ch.BackfilledAt = &now
	}
	err = s.commit(ctx, ch, filled, func(tx challenge.Store) error {
		if len(changed) == 0 {
			return nil
		}
		return tx.SaveDaySlots(ctx, changed)
	})
	if err != nil {
		ch.BackfilledAt = backfilledAt
	}
	return bucketed, err
}

// applyDayBuckets fills empty days from their bucket's earliest trophy and
// sets every day's plat_count to its bucket size. Filled days keep their game.
// It returns the modified slots and how many were newly filled.
func applyDayBuckets(slots []*challenge.DaySlot, buckets map[challenge.MonthDay]*trophy.DayBucket, now time.Time) ([]*challenge.DaySlot, int) {
	var changed []*challenge.DaySlot
	filled := 0
	for _, slot := range slots {
		b := buckets[slot.MonthDay()]
		count := 0
		if b != nil {
			count = b.Count
		}

		dirty := false
		if slot.PlatCount != count {
			slot.PlatCount = count
			dirty = true
		}
		if b != nil && !slot.IsFilled {
			gameID := b.First.GameID
			earnedAt := b.First.EarnedAt
			filledAt := now
			slot.GameID = &gameID
			slot.IsFilled = true
			slot.FilledAt = &filledAt
			slot.PlatinumEarnedAt = &earnedAt
			filled++
			dirty = true
		}
		if dirty {
			changed = append(changed, slot)
		}
	}
	return changed, filled
}

// commit runs write, the recount and the challenge save in one transaction and
// emits the completion event after it commits.
func (s *ProgressService) commit(ctx context.Context, ch *challenge.Challenge, flipped int, write func(tx challenge.Store) error) error {
	var completedNow bool
	err := s.store.WithTx(ctx, func(tx challenge.Store) error {
		if err := write(tx); err != nil {
			return fmt.Errorf("failed to save slots: %w", err)
		}
		var err error
		completedNow, err = s.persistTx(ctx, tx, ch)
		return err
	})
	if err != nil {
		return err
	}

	if flipped > 0 {
		slotsCompletedTotal.WithLabelValues(string(ch.Type)).Add(float64(flipped))
	}
	s.afterCommit(ctx, ch, completedNow)
	return nil
}

// persistTx recounts ch from the slot rows visible through tx, applies the
// terminal transition and saves the challenge. It reports whether the
// challenge completed in this call.
func (s *ProgressService) persistTx(ctx context.Context, tx challenge.Store, ch *challenge.Challenge) (bool, error) {
	counts, err := recount(ctx, tx, ch, s.resolver)
	if err != nil {
		return false, err
	}
	ch.Apply(counts)
	completedNow := ch.MarkComplete(s.now())
	if err := tx.SaveChallenge(ctx, ch); err != nil {
		return false, fmt.Errorf("failed to save challenge: %w", err)
	}
	return completedNow, nil
}

func (s *ProgressService) afterCommit(ctx context.Context, ch *challenge.Challenge, completedNow bool) {
	if !completedNow {
		return
	}
	completionsTotal.WithLabelValues(string(ch.Type)).Inc()
	s.log.Info("Challenge completed", "profile_id", ch.ProfileID, "challenge_id", ch.ID, "type", ch.Type)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.ChallengeCompleted(ctx, ch); err != nil {
		s.log.Error("Failed to record completion", "challenge_id", ch.ID, "error", err)
	}
}

func (s *ProgressService) evaluateMilestones(ctx context.Context, profileID uuid.UUID, typ challenge.Type) {
	if s.milestones == nil {
		return
	}
	if err := s.milestones.EvaluateChallengeMilestones(ctx, profileID, typ); err != nil {
		s.log.Error("Milestone evaluation failed", "profile_id", profileID, "type", typ, "error", err)
	}
}

// recount derives the counters of ch from its slot rows.
func recount(ctx context.Context, st challenge.Store, ch *challenge.Challenge, r *subgenre.Resolver) (challenge.Counters, error) {
	switch ch.Type {
	case challenge.TypeLetter:
		slots, err := st.LetterSlots(ctx, ch.ID)
		if err != nil {
			return challenge.Counters{}, fmt.Errorf("failed to load letter slots: %w", err)
		}
		return challenge.RecountLetter(slots), nil
	case challenge.TypeDay:
		slots, err := st.DaySlots(ctx, ch.ID)
		if err != nil {
			return challenge.Counters{}, fmt.Errorf("failed to load day slots: %w", err)
		}
		return challenge.RecountDay(slots), nil
	case challenge.TypeGenre:
		slots, err := st.GenreSlots(ctx, ch.ID)
		if err != nil {
			return challenge.Counters{}, fmt.Errorf("failed to load genre slots: %w", err)
		}
		bonus, err := st.BonusSlots(ctx, ch.ID)
		if err != nil {
			return challenge.Counters{}, fmt.Errorf("failed to load bonus slots: %w", err)
		}
		return challenge.RecountGenre(slots, bonus, r), nil
	}
	return challenge.Counters{}, fmt.Errorf("unknown challenge type %q", ch.Type)
}
