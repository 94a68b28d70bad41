package championship

import "time"

// Config carries the tournament timing and sizing knobs. Production
// uses DefaultConfig; tests shrink the budgets to milliseconds.
type Config struct {
	// TurnCap bounds a single agent call regardless of bank balance.
	TurnCap time.Duration
	// MatchBank is each team's time budget for an entire four-game
	// match; it is not reset between games.
	MatchBank time.Duration
	// SetupWindow bounds the reachability probe before game 1. If
	// neither team answers within it, the match is aborted.
	SetupWindow time.Duration
	// MaxParallel caps concurrently running matches within a round.
	MaxParallel int

	MinTeams int
	MaxTeams int
}

// DefaultConfig returns the production tournament parameters.
func DefaultConfig() Config {
	return Config{
		TurnCap:     10 * time.Second,
		MatchBank:   240 * time.Second,
		SetupWindow: 30 * time.Second,
		MaxParallel: 5,
		MinTeams:    2,
		MaxTeams:    20,
	}
}

// normalized fills zero values with defaults so partially built test
// configs behave.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.TurnCap <= 0 {
		c.TurnCap = def.TurnCap
	}
	if c.MatchBank <= 0 {
		c.MatchBank = def.MatchBank
	}
	if c.SetupWindow <= 0 {
		c.SetupWindow = def.SetupWindow
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = def.MaxParallel
	}
	if c.MinTeams <= 0 {
		c.MinTeams = def.MinTeams
	}
	if c.MaxTeams <= 0 {
		c.MaxTeams = def.MaxTeams
	}
	return c
}
