package models

import (
	"encoding/json"
	"time"
)

// Championship lifecycle status
const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

// Match status values
const (
	MatchScheduled  = "scheduled"
	MatchInProgress = "in_progress"
	MatchFinished   = "finished"
	MatchAborted    = "aborted"
)

// Seat identifies a side within a match. Game records reference seats;
// anything user-facing is resolved to team identities before emission.
type Seat string

const (
	SeatA Seat = "A"
	SeatB Seat = "B"
)

// Disc colors for the four-game rotation.
const (
	ColorRed    = "red"
	ColorYellow = "yellow"
)

// Terminal game outcomes. Forfeits name the offending seat.
const (
	OutcomeWinA     = "win_a"
	OutcomeWinB     = "win_b"
	OutcomeDraw     = "draw"
	OutcomeForfeitA = "forfeit_a"
	OutcomeForfeitB = "forfeit_b"
)

// Forfeit / completion reasons recorded on a game.
const (
	ReasonConnect     = "four_in_a_row"
	ReasonBoardFull   = "board_full"
	ReasonTimeout     = "timeout"
	ReasonTransport   = "transport"
	ReasonMalformed   = "malformed"
	ReasonIllegalMove = "illegal_move"
	ReasonNoTimeLeft  = "no_time_left"
)

// Team is a registered championship participant.
type Team struct {
	ID           string    `json:"team_id"`
	Name         string    `json:"team_name"`
	Endpoint     string    `json:"api_endpoint"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Move is a single placed disc.
type Move struct {
	Player int8 `json:"player"`
	Column int  `json:"column"`
}

// GameRecord is one sealed (or in-flight) game of a match.
type GameRecord struct {
	Index        int     `json:"game_index"` // 1..4
	FirstMover   Seat    `json:"first_mover"`
	TeamAColor   string  `json:"team_a_color"`
	TeamBColor   string  `json:"team_b_color"`
	Moves        []Move  `json:"moves"`
	Outcome      string  `json:"outcome,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	WinnerTeamID string  `json:"winner_team_id,omitempty"`
	PointsA      float64 `json:"points_a"`
	PointsB      float64 `json:"points_b"`
	DurationMsA  int64   `json:"duration_ms_a"`
	DurationMsB  int64   `json:"duration_ms_b"`
}

// MatchRecord is the persistent state of a four-game match.
type MatchRecord struct {
	ID           string        `json:"match_id"`
	RoundIndex   int           `json:"round_index"`
	TeamAID      string        `json:"team_a_id"`
	TeamBID      string        `json:"team_b_id"`
	TeamAName    string        `json:"team_a"`
	TeamBName    string        `json:"team_b"`
	Status       string        `json:"status"`
	Games        []*GameRecord `json:"games"`
	PointsA      float64       `json:"team_a_points"`
	PointsB      float64       `json:"team_b_points"`
	BankMsA      int64         `json:"bank_remaining_ms_a"`
	BankMsB      int64         `json:"bank_remaining_ms_b"`
	WinnerTeamID string        `json:"winner_team_id,omitempty"`
}

// Sealed reports whether the record is terminal and immutable.
func (m *MatchRecord) Sealed() bool {
	return m.Status == MatchFinished || m.Status == MatchAborted
}

// Clone returns a deep copy safe to hand to readers while the owning
// runner keeps mutating the original.
func (m *MatchRecord) Clone() *MatchRecord {
	data, _ := json.Marshal(m)
	var out MatchRecord
	_ = json.Unmarshal(data, &out)
	return &out
}

// Round is one slice of the round-robin schedule.
type Round struct {
	Index     int      `json:"round"`
	MatchIDs  []string `json:"match_ids"`
	ByeTeamID string   `json:"bye_team_id,omitempty"`
}

// Schedule is the full round-robin plan, immutable after generation.
type Schedule struct {
	Rounds []Round `json:"rounds"`
}

// TotalRounds returns the number of rounds in the schedule.
func (s *Schedule) TotalRounds() int {
	if s == nil {
		return 0
	}
	return len(s.Rounds)
}

// LeaderboardEntry is a derived standings row.
type LeaderboardEntry struct {
	TeamID     string  `json:"team_id"`
	TeamName   string  `json:"team_name"`
	Points     float64 `json:"points"`
	Wins       int     `json:"wins"`
	Draws      int     `json:"draws"`
	Losses     int     `json:"losses"`
	TimeUsedMs int64   `json:"time_used_ms"`
}

// ChampionshipState is the small persisted control block that lets the
// coordinator resume scheduling after a process restart.
type ChampionshipState struct {
	Status       string `json:"status"`
	CurrentRound int    `json:"current_round"`
}

// Snapshot is a consistent read of everything the dashboard needs.
type Snapshot struct {
	Status       string                  `json:"status"`
	CurrentRound int                     `json:"current_round"`
	Teams        []Team                  `json:"teams"`
	Schedule     *Schedule               `json:"schedule,omitempty"`
	Matches      map[string]*MatchRecord `json:"matches"`
	Leaderboard  []LeaderboardEntry      `json:"leaderboard"`
}
