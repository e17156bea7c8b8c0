package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"platChallengesAPI/internal/catalog"
	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/lock"
	"platChallengesAPI/internal/logger"
	"platChallengesAPI/internal/profile"
	"platChallengesAPI/internal/subgenre"
	"platChallengesAPI/internal/trophy"
)

// memStore is an in-memory challenge.Store. Rows are stored by value so
// callers never share memory with the store, and WithTx restores a snapshot
// when fn fails.
type memStore struct {
	challenges map[uuid.UUID]challenge.Challenge
	letters    map[uuid.UUID][]challenge.LetterSlot
	days       map[uuid.UUID][]challenge.DaySlot
	genres     map[uuid.UUID][]challenge.GenreSlot
	bonus      map[uuid.UUID][]challenge.BonusSlot

	// Raw subgenre tags per concept, joined onto genre and bonus slots.
	conceptTags map[int64][]string

	saves int
	now   func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		challenges:  make(map[uuid.UUID]challenge.Challenge),
		letters:     make(map[uuid.UUID][]challenge.LetterSlot),
		days:        make(map[uuid.UUID][]challenge.DaySlot),
		genres:      make(map[uuid.UUID][]challenge.GenreSlot),
		bonus:       make(map[uuid.UUID][]challenge.BonusSlot),
		conceptTags: make(map[int64][]string),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type memSnapshot struct {
	challenges map[uuid.UUID]challenge.Challenge
	letters    map[uuid.UUID][]challenge.LetterSlot
	days       map[uuid.UUID][]challenge.DaySlot
	genres     map[uuid.UUID][]challenge.GenreSlot
	bonus      map[uuid.UUID][]challenge.BonusSlot
	saves      int
}

func cloneRows[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		out[k] = append([]V(nil), v...)
	}
	return out
}

func (s *memStore) WithTx(ctx context.Context, fn func(tx challenge.Store) error) error {
	snap := memSnapshot{
		challenges: make(map[uuid.UUID]challenge.Challenge, len(s.challenges)),
		letters:    cloneRows(s.letters),
		days:       cloneRows(s.days),
		genres:     cloneRows(s.genres),
		bonus:      cloneRows(s.bonus),
		saves:      s.saves,
	}
	for k, v := range s.challenges {
		snap.challenges[k] = v
	}
	if err := fn(s); err != nil {
		s.challenges, s.letters, s.days, s.genres, s.bonus = snap.challenges, snap.letters, snap.days, snap.genres, snap.bonus
		s.saves = snap.saves
		return err
	}
	return nil
}

func (s *memStore) CreateChallenge(ctx context.Context, ch *challenge.Challenge, slots challenge.SlotSet) error {
	for _, c := range s.challenges {
		if c.ProfileID == ch.ProfileID && c.Type == ch.Type && c.IsActive() {
			return challenge.ErrActiveExists
		}
	}
	s.challenges[ch.ID] = *ch
	for _, l := range slots.Letters {
		s.letters[ch.ID] = append(s.letters[ch.ID], *l)
	}
	for _, d := range slots.Days {
		s.days[ch.ID] = append(s.days[ch.ID], *d)
	}
	for _, g := range slots.Genres {
		s.genres[ch.ID] = append(s.genres[ch.ID], *g)
	}
	return nil
}

func (s *memStore) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	c, ok := s.challenges[id]
	if !ok {
		return nil, challenge.ErrNotFound
	}
	return &c, nil
}

func (s *memStore) HasActiveChallenge(ctx context.Context, profileID uuid.UUID, typ challenge.Type) (bool, error) {
	active, _ := s.ActiveChallenges(ctx, profileID, typ)
	return len(active) > 0, nil
}

func (s *memStore) ActiveChallenges(ctx context.Context, profileID uuid.UUID, typ challenge.Type) ([]*challenge.Challenge, error) {
	var out []*challenge.Challenge
	for _, c := range s.challenges {
		if c.ProfileID == profileID && c.Type == typ && c.IsActive() {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) CompletedChallengeCount(ctx context.Context, profileID uuid.UUID, typ challenge.Type) (int, error) {
	n := 0
	for _, c := range s.challenges {
		if c.ProfileID == profileID && c.Type == typ && c.IsComplete && !c.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (s *memStore) SaveChallenge(ctx context.Context, ch *challenge.Challenge) error {
	stored, ok := s.challenges[ch.ID]
	if !ok {
		return challenge.ErrNotFound
	}
	if stored.IsComplete {
		return challenge.ErrAlreadyComplete
	}
	ch.UpdatedAt = s.now()
	s.challenges[ch.ID] = *ch
	s.saves++
	return nil
}

func (s *memStore) SetCoverKey(ctx context.Context, id uuid.UUID, key string) error {
	c, ok := s.challenges[id]
	if !ok {
		return challenge.ErrNotFound
	}
	c.CoverKey = key
	s.challenges[id] = c
	return nil
}

func (s *memStore) DeleteChallenge(ctx context.Context, id uuid.UUID) error {
	c, ok := s.challenges[id]
	if !ok {
		return challenge.ErrNotFound
	}
	c.IsDeleted = true
	s.challenges[id] = c
	return nil
}

func (s *memStore) LetterSlots(ctx context.Context, challengeID uuid.UUID) ([]*challenge.LetterSlot, error) {
	var out []*challenge.LetterSlot
	for _, l := range s.letters[challengeID] {
		l := l
		out = append(out, &l)
	}
	return out, nil
}

func (s *memStore) DaySlots(ctx context.Context, challengeID uuid.UUID) ([]*challenge.DaySlot, error) {
	var out []*challenge.DaySlot
	for _, d := range s.days[challengeID] {
		d := d
		out = append(out, &d)
	}
	return out, nil
}

func (s *memStore) GenreSlots(ctx context.Context, challengeID uuid.UUID) ([]*challenge.GenreSlot, error) {
	var out []*challenge.GenreSlot
	for _, g := range s.genres[challengeID] {
		g := g
		g.ConceptSubgenres = nil
		if g.ConceptID != nil {
			g.ConceptSubgenres = s.conceptTags[*g.ConceptID]
		}
		out = append(out, &g)
	}
	return out, nil
}

func (s *memStore) BonusSlots(ctx context.Context, challengeID uuid.UUID) ([]*challenge.BonusSlot, error) {
	var out []*challenge.BonusSlot
	for _, b := range s.bonus[challengeID] {
		b := b
		b.ConceptSubgenres = s.conceptTags[b.ConceptID]
		out = append(out, &b)
	}
	return out, nil
}

func (s *memStore) SaveLetterSlots(ctx context.Context, slots []*challenge.LetterSlot) error {
	for _, slot := range slots {
		rows := s.letters[slot.ChallengeID]
		for i := range rows {
			if rows[i].ID == slot.ID {
				rows[i] = *slot
			}
		}
	}
	return nil
}

func (s *memStore) SaveDaySlots(ctx context.Context, slots []*challenge.DaySlot) error {
	for _, slot := range slots {
		rows := s.days[slot.ChallengeID]
		for i := range rows {
			if rows[i].ID == slot.ID {
				rows[i] = *slot
			}
		}
	}
	return nil
}

func (s *memStore) SaveGenreSlots(ctx context.Context, slots []*challenge.GenreSlot) error {
	for _, slot := range slots {
		rows := s.genres[slot.ChallengeID]
		for i := range rows {
			if rows[i].ID == slot.ID {
				rows[i] = *slot
			}
		}
	}
	return nil
}

func (s *memStore) SaveBonusSlots(ctx context.Context, slots []*challenge.BonusSlot) error {
	for _, slot := range slots {
		rows := s.bonus[slot.ChallengeID]
		for i := range rows {
			if rows[i].ID == slot.ID {
				rows[i] = *slot
			}
		}
	}
	return nil
}

func (s *memStore) InsertBonusSlot(ctx context.Context, slot *challenge.BonusSlot) error {
	s.bonus[slot.ChallengeID] = append(s.bonus[slot.ChallengeID], *slot)
	return nil
}

func (s *memStore) DeleteBonusSlot(ctx context.Context, id uuid.UUID) error {
	for cid, rows := range s.bonus {
		for i := range rows {
			if rows[i].ID == id {
				s.bonus[cid] = append(rows[:i:i], rows[i+1:]...)
				return nil
			}
		}
	}
	return challenge.ErrNotFound
}

func (s *memStore) letterSlot(challengeID uuid.UUID, letter string) challenge.LetterSlot {
	for _, l := range s.letters[challengeID] {
		if l.Letter == letter {
			return l
		}
	}
	return challenge.LetterSlot{}
}

func (s *memStore) daySlot(challengeID uuid.UUID, month, day int) (challenge.DaySlot, bool) {
	for _, d := range s.days[challengeID] {
		if d.Month == month && d.Day == day {
			return d, true
		}
	}
	return challenge.DaySlot{}, false
}

func (s *memStore) genreSlot(challengeID uuid.UUID, genre string) challenge.GenreSlot {
	for _, g := range s.genres[challengeID] {
		if g.Genre == genre {
			return g
		}
	}
	return challenge.GenreSlot{}
}

type fakeTrophies struct {
	platinums catalog.IDSet
	history   []trophy.Earned
	played    []trophy.PlayedGame

	platinumCalls [][]int64
	sinceCalls    int
	historyCalls  int
	err           error
}

func newFakeTrophies() *fakeTrophies {
	return &fakeTrophies{platinums: catalog.NewIDSet()}
}

func (f *fakeTrophies) PlatinumEarned(ctx context.Context, profileID uuid.UUID, gameIDs []int64) (catalog.IDSet, error) {
	f.platinumCalls = append(f.platinumCalls, gameIDs)
	if f.err != nil {
		return nil, f.err
	}
	out := catalog.NewIDSet()
	for _, id := range gameIDs {
		if f.platinums.Has(id) {
			out.Add(id)
		}
	}
	return out, nil
}

func (f *fakeTrophies) QualifyingTrophiesSince(ctx context.Context, profileID uuid.UUID, since time.Time) (bool, error) {
	f.sinceCalls++
	if f.err != nil {
		return false, f.err
	}
	for _, e := range f.history {
		if e.EarnedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTrophies) QualifyingTrophyHistory(ctx context.Context, profileID uuid.UUID) ([]trophy.Earned, error) {
	f.historyCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := append([]trophy.Earned(nil), f.history...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EarnedAt.Before(out[j].EarnedAt) })
	return out, nil
}

func (f *fakeTrophies) PlayedGames(ctx context.Context, profileID uuid.UUID) ([]trophy.PlayedGame, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.played, nil
}

// fakeGraph answers sibling lookups from adjacency maps and records the ids
// of every lookup.
type fakeGraph struct {
	gameContent    map[int64][]int64
	gameFamily     map[int64][]int64
	conceptContent map[int64][]int64
	conceptFamily  map[int64][]int64

	lookups [][]int64
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		gameContent:    make(map[int64][]int64),
		gameFamily:     make(map[int64][]int64),
		conceptContent: make(map[int64][]int64),
		conceptFamily:  make(map[int64][]int64),
	}
}

func (g *fakeGraph) neighbours(adj map[int64][]int64, ids []int64) []int64 {
	g.lookups = append(g.lookups, ids)
	var out []int64
	for _, id := range ids {
		out = append(out, adj[id]...)
	}
	return out
}

func (g *fakeGraph) GameContentSiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return g.neighbours(g.gameContent, ids), nil
}

func (g *fakeGraph) GameFamilySiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return g.neighbours(g.gameFamily, ids), nil
}

func (g *fakeGraph) ConceptContentSiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return g.neighbours(g.conceptContent, ids), nil
}

func (g *fakeGraph) ConceptFamilySiblings(ctx context.Context, ids []int64) ([]int64, error) {
	return g.neighbours(g.conceptFamily, ids), nil
}

type fakeCatalog struct {
	games    map[int64]*catalog.Game
	concepts map[int64]*catalog.Concept
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		games:    make(map[int64]*catalog.Game),
		concepts: make(map[int64]*catalog.Concept),
	}
}

func (c *fakeCatalog) addGame(id int64, title string, conceptID int64) {
	g := &catalog.Game{ID: id, Title: title}
	if conceptID != 0 {
		g.ConceptID = &conceptID
	}
	c.games[id] = g
}

func (c *fakeCatalog) addConcept(id int64, title string, genres ...string) {
	c.concepts[id] = &catalog.Concept{ID: id, Title: title, Genres: genres}
}

func (c *fakeCatalog) Game(ctx context.Context, id int64) (*catalog.Game, error) {
	g, ok := c.games[id]
	if !ok {
		return nil, catalog.ErrGameNotFound
	}
	return g, nil
}

func (c *fakeCatalog) Concept(ctx context.Context, id int64) (*catalog.Concept, error) {
	concept, ok := c.concepts[id]
	if !ok {
		return nil, catalog.ErrConceptNotFound
	}
	return concept, nil
}

func (c *fakeCatalog) GamesForConcepts(ctx context.Context, conceptIDs []int64) (map[int64][]int64, error) {
	want := catalog.NewIDSet(conceptIDs...)
	out := make(map[int64][]int64)
	for _, g := range c.games {
		if g.ConceptID != nil && want.Has(*g.ConceptID) && !g.IsShovelware {
			out[*g.ConceptID] = append(out[*g.ConceptID], g.ID)
		}
	}
	return out, nil
}

type fakeProfiles struct {
	byID map[uuid.UUID]*profile.Profile
}

func (f *fakeProfiles) add(p *profile.Profile) {
	f.byID[p.ID] = p
}

func (f *fakeProfiles) Profile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) ProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	for _, p := range f.byID {
		if p.ClerkID == clerkID {
			return p, nil
		}
	}
	return nil, profile.ErrNotFound
}

func (f *fakeProfiles) UpsertProfile(ctx context.Context, req *profile.UpsertProfileRequest) (*profile.Profile, error) {
	p, err := f.ProfileByClerkID(ctx, req.ClerkID)
	if err != nil {
		p = &profile.Profile{ID: uuid.New(), ClerkID: req.ClerkID, CreatedAt: time.Now().UTC()}
		f.add(p)
	}
	p.OnlineID = req.OnlineID
	p.Timezone = req.Timezone
	return p, nil
}

func (f *fakeProfiles) DeleteProfileByClerkID(ctx context.Context, clerkID string) error {
	p, err := f.ProfileByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}
	delete(f.byID, p.ID)
	return nil
}

type fakeNotifier struct {
	completed []challenge.Challenge
}

func (f *fakeNotifier) ChallengeCompleted(ctx context.Context, ch *challenge.Challenge) error {
	f.completed = append(f.completed, *ch)
	return nil
}

type fakeMilestones struct {
	calls []challenge.Type
}

func (f *fakeMilestones) EvaluateChallengeMilestones(ctx context.Context, profileID uuid.UUID, typ challenge.Type) error {
	f.calls = append(f.calls, typ)
	return nil
}

type fakeLocker struct {
	held     map[string]bool
	acquired []string
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if f.held[key] {
		return nil, lock.ErrNotAcquired
	}
	f.held[key] = true
	f.acquired = append(f.acquired, key)
	return func(context.Context) error {
		delete(f.held, key)
		return nil
	}, nil
}

// testEnv wires every service against the fakes for one profile.
type testEnv struct {
	store      *memStore
	trophies   *fakeTrophies
	graph      *fakeGraph
	catalog    *fakeCatalog
	profiles   *fakeProfiles
	notifier   *fakeNotifier
	milestones *fakeMilestones

	progress   *ProgressService
	exclusions *ExclusionService
	covers     *CoverService
	challenges *ChallengeService

	profile *profile.Profile
}

const testClerkID = "user_2plat"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()
	resolver := subgenre.NewResolver(nil)

	e := &testEnv{
		store:      newMemStore(),
		trophies:   newFakeTrophies(),
		graph:      newFakeGraph(),
		catalog:    newFakeCatalog(),
		profiles:   &fakeProfiles{byID: make(map[uuid.UUID]*profile.Profile)},
		notifier:   &fakeNotifier{},
		milestones: &fakeMilestones{},
		profile:    &profile.Profile{ID: uuid.New(), ClerkID: testClerkID, Timezone: "UTC"},
	}
	e.profiles.add(e.profile)

	e.progress = NewProgressService(e.store, e.trophies, e.catalog, e.profiles, resolver, log)
	e.progress.SetNotifier(e.notifier)
	e.progress.SetMilestones(e.milestones)
	e.exclusions = NewExclusionService(e.trophies, e.graph, log)
	e.covers = NewCoverService(e.store)
	e.covers.pick = func(n int) int { return 0 }
	e.challenges = NewChallengeService(e.store, e.profiles, e.catalog, e.exclusions, e.covers, e.progress, resolver, log)
	return e
}

// newChallenge inserts an empty challenge of typ for the env's profile.
func (e *testEnv) newChallenge(t *testing.T, typ challenge.Type) *challenge.Challenge {
	t.Helper()
	ch := challenge.New(e.profile.ID, typ, "", time.Now().UTC().Add(-time.Hour))
	if err := e.store.CreateChallenge(context.Background(), ch, challenge.NewSlotSet(ch)); err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	return ch
}

func (e *testEnv) assignLetterRow(ch *challenge.Challenge, letter string, gameID int64, completed bool) {
	rows := e.store.letters[ch.ID]
	for i := range rows {
		if rows[i].Letter != letter {
			continue
		}
		id := gameID
		at := time.Now().UTC().Add(-time.Hour)
		rows[i].GameID = &id
		rows[i].AssignedAt = &at
		if completed {
			rows[i].IsCompleted = true
			rows[i].CompletedAt = &at
		}
	}
}

func (e *testEnv) assignGenreRow(ch *challenge.Challenge, genre string, conceptID int64, completed bool) {
	rows := e.store.genres[ch.ID]
	for i := range rows {
		if rows[i].Genre != genre {
			continue
		}
		id := conceptID
		at := time.Now().UTC().Add(-time.Hour)
		rows[i].ConceptID = &id
		rows[i].AssignedAt = &at
		if completed {
			rows[i].IsCompleted = true
			rows[i].CompletedAt = &at
		}
	}
}

func (e *testEnv) stored(id uuid.UUID) challenge.Challenge {
	return e.store.challenges[id]
}

func int64p(v int64) *int64 { return &v }
