package events

import (
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/models"
)

// Kind tags an event variant. Handlers switch on the tag instead of
// probing payload maps.
type Kind string

// Dashboard topic events.
const (
	KindInitialState      Kind = "initial_state"
	KindStatusUpdate      Kind = "status_update"
	KindRoundStart        Kind = "round_start"
	KindRoundComplete     Kind = "round_complete"
	KindMatchUpdate       Kind = "match_update"
	KindLeaderboardUpdate Kind = "leaderboard_update"
)

// Per-match topic events.
const (
	KindMatchInfo      Kind = "championship_match_info"
	KindGameInfo       Kind = "game_info"
	KindGameStart      Kind = "game_start"
	KindGameUpdate     Kind = "game_update"
	KindMoveMade       Kind = "move_made"
	KindGameComplete   Kind = "game_complete"
	KindSpectatorCount Kind = "spectator_count"
	KindMatchRestart   Kind = "match_restart"
)

// KindResync instructs a subscriber that events were dropped and a
// fresh snapshot must be fetched.
const KindResync Kind = "resync"

// TopicDashboard is the aggregate spectator topic; per-match topics are
// built with MatchTopic.
const TopicDashboard = "dashboard"

// MatchTopic returns the topic name for a match id.
func MatchTopic(matchID string) string {
	return "match:" + matchID
}

// Event is the tagged variant delivered to subscribers. Payload must be
// JSON-serializable.
type Event struct {
	Type    Kind `json:"type"`
	Payload any  `json:"payload,omitempty"`
}

// Payload types. Board snapshots are nested int slices, durations in
// milliseconds, winners always team identities.

type StatusUpdate struct {
	Status       string `json:"status"`
	TeamCount    int    `json:"team_count"`
	CurrentRound int    `json:"current_round"`
	TotalRounds  int    `json:"total_rounds"`
}

type RoundMarker struct {
	Round int `json:"round"`
}

type MatchInfo struct {
	Match *models.MatchRecord `json:"match"`
}

type GameInfo struct {
	MatchID    string `json:"match_id"`
	GameIndex  int    `json:"game_index"`
	FirstMover string `json:"first_mover_team_id"`
	TeamAColor string `json:"team_a_color"`
	TeamBColor string `json:"team_b_color"`
}

type GameStart struct {
	MatchID   string `json:"match_id"`
	GameIndex int    `json:"game_index"`
}

type MoveMade struct {
	MatchID    string  `json:"match_id"`
	GameIndex  int     `json:"game_index"`
	MoveIndex  int     `json:"move_index"`
	Player     int8    `json:"player"`
	TeamID     string  `json:"team_id"`
	Column     int     `json:"column"`
	BoardAfter [][]int `json:"board_after"`
}

type GameUpdate struct {
	MatchID       string  `json:"match_id"`
	GameIndex     int     `json:"game_index"`
	Board         [][]int `json:"board"`
	CurrentPlayer int8    `json:"current_player"`
	GameOver      bool    `json:"game_over"`
}

type GameComplete struct {
	MatchID      string  `json:"match_id"`
	GameIndex    int     `json:"game_index"`
	Outcome      string  `json:"outcome"`
	Reason       string  `json:"reason"`
	WinnerTeamID string  `json:"winner_team_id,omitempty"`
	PointsA      float64 `json:"points_a"`
	PointsB      float64 `json:"points_b"`
}

type SpectatorCount struct {
	MatchID string `json:"match_id"`
	Count   int    `json:"count"`
}

type MatchRestart struct {
	MatchID string `json:"match_id"`
}

type LeaderboardUpdate struct {
	Entries []models.LeaderboardEntry `json:"entries"`
}
