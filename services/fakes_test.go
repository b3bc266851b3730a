package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
)

// In-memory repositories mirroring the postgres implementations'
// semantics: sentinel errors, unique constraints and conditional
// writes, so the service protocols can be exercised without a store.

type fakeTournamentRepo struct {
	mu sync.Mutex
	// afterGet runs once after the next GetByID returns, outside the
	// lock, so tests can interleave a competing write mid-operation.
	afterGet func()
	nextID   int
	rows   map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{rows: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Name == t.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	clone := *t
	r.rows[t.ID] = &clone
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	row, ok := r.rows[id]
	if !ok {
		r.mu.Unlock()
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *row
	hook := r.afterGet
	r.afterGet = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return &clone, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, limit, offset int) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*models.Tournament, 0)
	for i, id := range ids {
		if i < offset || len(out) >= limit {
			continue
		}
		clone := *r.rows[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdatePhase(_ context.Context, id int, from, to models.TournamentPhase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if row.Phase != from {
		return repositories.ErrTournamentPhaseStale
	}
	row.Phase = to
	row.UpdatedAt = time.Now()
	return nil
}

func (r *fakeTournamentRepo) UpdateCrestKey(_ context.Context, id int, key *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	row.CrestKey = key
	return nil
}

type fakeParticipantRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{rows: make(map[int]*models.Participant)}
}

func (r *fakeParticipantRepo) Create(_ context.Context, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.TournamentID != p.TournamentID {
			continue
		}
		switch {
		case row.TeamName == p.TeamName:
			return repositories.ErrParticipantTeamNameConflict
		case row.CoachID == p.CoachID:
			return repositories.ErrParticipantCoachConflict
		case row.Seed == p.Seed:
			return repositories.ErrParticipantSeedConflict
		}
	}
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	clone := *p
	r.rows[p.ID] = &clone
	return nil
}

func (r *fakeParticipantRepo) GetByID(_ context.Context, id int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *fakeParticipantRepo) list(filter func(*models.Participant) bool) []*models.Participant {
	out := make([]*models.Participant, 0)
	for _, row := range r.rows {
		if filter(row) {
			clone := *row
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seed != out[j].Seed {
			return out[i].Seed < out[j].Seed
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(p *models.Participant) bool { return p.TournamentID == tournamentID }), nil
}

func (r *fakeParticipantRepo) ListByGroup(_ context.Context, groupID int) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(p *models.Participant) bool { return p.GroupID != nil && *p.GroupID == groupID }), nil
}

func (r *fakeParticipantRepo) NextSeed(_ context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, row := range r.rows {
		if row.TournamentID == tournamentID && row.Seed > max {
			max = row.Seed
		}
	}
	return max + 1, nil
}

func (r *fakeParticipantRepo) UpdateSeed(_ context.Context, id, seed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	for _, other := range r.rows {
		if other.ID != id && other.TournamentID == row.TournamentID && other.Seed == seed {
			return repositories.ErrParticipantSeedConflict
		}
	}
	row.Seed = seed
	return nil
}

func (r *fakeParticipantRepo) AssignGroup(_ context.Context, id, groupID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	row.GroupID = &groupID
	return nil
}

func (r *fakeParticipantRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeGroupRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.Group
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{rows: make(map[int]*models.Group)}
}

func (r *fakeGroupRepo) Create(_ context.Context, g *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.TournamentID == g.TournamentID && row.Name == g.Name {
			return repositories.ErrGroupNameConflict
		}
	}
	r.nextID++
	g.ID = r.nextID
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	clone := *g
	r.rows[g.ID] = &clone
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, id int) (*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *fakeGroupRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Group, 0)
	for _, row := range r.rows {
		if row.TournamentID == tournamentID {
			clone := *row
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeMatchRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{rows: make(map[int]*models.Match)}
}

func slotKey(m *models.Match) string {
	groupID := 0
	if m.GroupID != nil {
		groupID = *m.GroupID
	}
	return fmt.Sprintf("%d/%d/%d/%d/%d", m.TournamentID, groupID, m.Round, m.Slot, m.Leg)
}

func (r *fakeMatchRepo) Create(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if slotKey(row) == slotKey(m) {
			return repositories.ErrMatchSlotTaken
		}
	}
	r.nextID++
	m.ID = r.nextID
	m.Version = 1
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	clone := *m
	r.rows[m.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *fakeMatchRepo) list(filter func(*models.Match) bool) []*models.Match {
	out := make([]*models.Match, 0)
	for _, row := range r.rows {
		if filter(row) {
			clone := *row
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.Leg < b.Leg
	})
	return out
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(m *models.Match) bool { return m.TournamentID == tournamentID }), nil
}

func (r *fakeMatchRepo) ListBracketRound(_ context.Context, tournamentID, round int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(m *models.Match) bool {
		return m.TournamentID == tournamentID && m.GroupID == nil && m.Round == round
	}), nil
}

func (r *fakeMatchRepo) ListByGroup(_ context.Context, groupID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(m *models.Match) bool { return m.GroupID != nil && *m.GroupID == groupID }), nil
}

func (r *fakeMatchRepo) MaxBracketRound(_ context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, row := range r.rows {
		if row.TournamentID == tournamentID && row.GroupID == nil && row.Round > max {
			max = row.Round
		}
	}
	return max, nil
}

func (r *fakeMatchRepo) ListDueBefore(_ context.Context, cutoff time.Time) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(m *models.Match) bool {
		return m.Status == models.MatchScheduled && m.Deadline != nil && m.Deadline.Before(cutoff)
	}), nil
}

func (r *fakeMatchRepo) Update(_ context.Context, m *models.Match, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[m.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if row.Version != expectedVersion {
		return repositories.ErrMatchVersionConflict
	}
	clone := *m
	clone.Version = row.Version + 1
	clone.UpdatedAt = time.Now()
	r.rows[m.ID] = &clone
	m.Version = clone.Version
	m.UpdatedAt = clone.UpdatedAt
	return nil
}

type fakeDisputeRepo struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.Dispute
}

func newFakeDisputeRepo() *fakeDisputeRepo {
	return &fakeDisputeRepo{rows: make(map[int]*models.Dispute)}
}

func (r *fakeDisputeRepo) Create(_ context.Context, d *models.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	d.ID = r.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	clone := *d
	r.rows[d.ID] = &clone
	return nil
}

func (r *fakeDisputeRepo) ListByMatch(_ context.Context, matchID int) ([]*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Dispute, 0)
	for _, row := range r.rows {
		if row.MatchID == matchID {
			clone := *row
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeDisputeRepo) LatestOpen(_ context.Context, matchID int) (*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Dispute
	for _, row := range r.rows {
		if row.MatchID == matchID && row.Status == models.DisputeOpen {
			if latest == nil || row.ID > latest.ID {
				latest = row
			}
		}
	}
	if latest == nil {
		return nil, repositories.ErrDisputeNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeDisputeRepo) Resolve(_ context.Context, id int, resolution string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.Status != models.DisputeOpen {
		return repositories.ErrDisputeNotFound
	}
	row.Status = models.DisputeResolved
	row.Resolution = &resolution
	row.UpdatedAt = time.Now()
	return nil
}

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(_ int, eventType string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}
