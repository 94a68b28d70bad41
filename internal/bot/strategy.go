// Package bot implements the built-in reference player. It is a plain
// heuristic: take a winning column, block the opponent's winning
// column, otherwise prefer the centre with a touch of randomness.
package bot

import (
	"math/rand"
	"sync"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/game"
)

type Strategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a strategy with its own randomness source so concurrent
// games do not contend on the global one.
func New(seed int64) *Strategy {
	return &Strategy{rng: rand.New(rand.NewSource(seed))}
}

// centreOrder ranks columns by distance from the middle; it is the
// preference order when no tactical move exists.
var centreOrder = [game.Columns]int{3, 2, 4, 1, 5, 0, 6}

// Choose picks a column for player on the given board. The board is
// never mutated; candidate moves are tried on copies. Choose expects
// at least one open column; on a full board it returns 0.
func (s *Strategy) Choose(board *game.Board, player int8) int {
	valid := board.ValidMoves()
	if len(valid) == 0 {
		return 0
	}

	if col, ok := winningColumn(board, player, valid); ok {
		return col
	}
	if col, ok := winningColumn(board, game.Opponent(player), valid); ok {
		return col // block
	}

	// Centre preference, with a small chance of straying so repeated
	// games do not replay identically.
	s.mu.Lock()
	stray := s.rng.Intn(10) == 0
	pick := valid[s.rng.Intn(len(valid))]
	s.mu.Unlock()
	if stray {
		return pick
	}
	open := make(map[int]bool, len(valid))
	for _, c := range valid {
		open[c] = true
	}
	for _, c := range centreOrder {
		if open[c] {
			return c
		}
	}
	return valid[0]
}

// winningColumn reports a column that completes four in a row for
// player, if one exists.
func winningColumn(board *game.Board, player int8, valid []int) (int, bool) {
	for _, col := range valid {
		probe := *board
		if _, err := probe.Drop(col, player); err != nil {
			continue
		}
		if probe.CheckWin(player) {
			return col, true
		}
	}
	return 0, false
}
