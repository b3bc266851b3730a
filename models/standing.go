package models

// PointsConfig sets the points awarded per result. Defaults follow
// football convention.
type PointsConfig struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
	Loss int `json:"loss"`
}

func DefaultPoints() PointsConfig {
	return PointsConfig{Win: 3, Draw: 1, Loss: 0}
}

// Standing is one derived leaderboard row. It is never persisted;
// the standings calculator recomputes it from the ledger on demand.
type Standing struct {
	ParticipantID int    `json:"participant_id"`
	TeamName      string `json:"team_name"`
	Seed          int    `json:"seed"`
	Played        int    `json:"played"`
	Wins          int    `json:"wins"`
	Draws         int    `json:"draws"`
	Losses        int    `json:"losses"`
	GoalsFor      int    `json:"goals_for"`
	GoalsAgainst  int    `json:"goals_against"`
	GoalDiff      int    `json:"goal_diff"`
	Points        int    `json:"points"`
}
