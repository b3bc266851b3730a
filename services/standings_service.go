package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/offsideleague/league-engine/models"
	"github.com/offsideleague/league-engine/repositories"
)

type StandingsService interface {
	// Tournament computes the leaderboard over every terminal match of
	// the tournament, bracket and groups alike.
	Tournament(ctx context.Context, tournamentID int, cfg models.PointsConfig) ([]*models.Standing, error)
	// Group computes the leaderboard of one group from its fixtures only.
	Group(ctx context.Context, groupID int, cfg models.PointsConfig) ([]*models.Standing, error)
}

type standingsService struct {
	tournaments  repositories.TournamentRepository
	groups       repositories.GroupRepository
	participants repositories.ParticipantRepository
	matches      repositories.MatchRepository
}

func NewStandingsService(
	tournaments repositories.TournamentRepository,
	groups repositories.GroupRepository,
	participants repositories.ParticipantRepository,
	matches repositories.MatchRepository,
) StandingsService {
	return &standingsService{
		tournaments:  tournaments,
		groups:       groups,
		participants: participants,
		matches:      matches,
	}
}

func (s *standingsService) Tournament(ctx context.Context, tournamentID int, cfg models.PointsConfig) ([]*models.Standing, error) {
	if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("load tournament %d: %w", tournamentID, err)
	}
	participants, err := s.participants.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list participants of tournament %d: %w", tournamentID, err)
	}
	matches, err := s.matches.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list matches of tournament %d: %w", tournamentID, err)
	}
	return BuildTable(participants, matches, cfg), nil
}

func (s *standingsService) Group(ctx context.Context, groupID int, cfg models.PointsConfig) ([]*models.Standing, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("load group %d: %w", groupID, err)
	}
	members, err := s.participants.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members of group %d: %w", groupID, err)
	}
	fixtures, err := s.matches.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures of group %d: %w", groupID, err)
	}
	return BuildTable(members, fixtures, cfg), nil
}

// BuildTable derives the leaderboard from terminal matches only.
// Scheduled, reported and disputed matches contribute nothing yet.
// The result is totally ordered: points desc, goal difference desc,
// goals for desc, then seed asc as the final tie break.
func BuildTable(participants []*models.Participant, matches []*models.Match, cfg models.PointsConfig) []*models.Standing {
	rows := make(map[int]*models.Standing, len(participants))
	table := make([]*models.Standing, 0, len(participants))
	for _, p := range participants {
		row := &models.Standing{
			ParticipantID: p.ID,
			TeamName:      p.TeamName,
			Seed:          p.Seed,
		}
		rows[p.ID] = row
		table = append(table, row)
	}

	for _, m := range matches {
		if !m.Status.Terminal() {
			continue
		}
		if m.HomeID == nil || m.AwayID == nil || m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		home, away := rows[*m.HomeID], rows[*m.AwayID]
		if home == nil || away == nil {
			continue // participant not in this scope (e.g. other group)
		}

		hs, as := *m.HomeScore, *m.AwayScore
		home.Played++
		away.Played++
		home.GoalsFor += hs
		home.GoalsAgainst += as
		away.GoalsFor += as
		away.GoalsAgainst += hs

		switch {
		case hs > as:
			home.Wins++
			home.Points += cfg.Win
			away.Losses++
			away.Points += cfg.Loss
		case hs < as:
			away.Wins++
			away.Points += cfg.Win
			home.Losses++
			home.Points += cfg.Loss
		default:
			home.Draws++
			away.Draws++
			home.Points += cfg.Draw
			away.Points += cfg.Draw
		}
	}

	for _, row := range table {
		row.GoalDiff = row.GoalsFor - row.GoalsAgainst
	}

	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDiff != b.GoalDiff {
			return a.GoalDiff > b.GoalDiff
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Seed < b.Seed
	})
	return table
}
