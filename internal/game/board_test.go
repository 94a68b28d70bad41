package game

import (
	"reflect"
	"testing"
)

// fill plays a sequence of (column, player) drops, failing the test on
// any rejected move.
func fill(t *testing.T, b *Board, moves ...[2]int) {
	t.Helper()
	for _, m := range moves {
		if _, err := b.Drop(m[0], int8(m[1])); err != nil {
			t.Fatalf("Drop(%d, %d) failed: %v", m[0], m[1], err)
		}
	}
}

func TestValidMoves(t *testing.T) {
	var b Board
	if got := b.ValidMoves(); !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4, 5, 6}) {
		t.Errorf("empty board valid moves = %v", got)
	}

	// Fill column 3 completely
	for i := 0; i < Rows; i++ {
		fill(t, &b, [2]int{3, 1 + i%2})
	}
	if b.IsValidMove(3) {
		t.Error("full column should not be a valid move")
	}
	if got := b.ValidMoves(); !reflect.DeepEqual(got, []int{0, 1, 2, 4, 5, 6}) {
		t.Errorf("valid moves with column 3 full = %v", got)
	}
	if _, err := b.Drop(3, Player1); err != ErrColumnFull {
		t.Errorf("Drop on full column error = %v, want ErrColumnFull", err)
	}
}

func TestDropGravity(t *testing.T) {
	var b Board
	row, err := b.Drop(2, Player1)
	if err != nil || row != Rows-1 {
		t.Fatalf("first drop landed at row %d, err %v", row, err)
	}
	row, err = b.Drop(2, Player2)
	if err != nil || row != Rows-2 {
		t.Fatalf("second drop landed at row %d, err %v", row, err)
	}
	if !b.WellFormed() {
		t.Error("board should be well-formed after drops")
	}
	if _, err := b.Drop(7, Player1); err != ErrColumnOutRange {
		t.Errorf("Drop(7) error = %v, want ErrColumnOutRange", err)
	}
	if _, err := b.Drop(-1, Player1); err != ErrColumnOutRange {
		t.Errorf("Drop(-1) error = %v, want ErrColumnOutRange", err)
	}
}

func TestCheckWinDirections(t *testing.T) {
	tests := []struct {
		name  string
		moves [][2]int
		want  Result
	}{
		{
			name:  "horizontal",
			moves: [][2]int{{0, 1}, {0, 2}, {1, 1}, {1, 2}, {2, 1}, {2, 2}, {3, 1}},
			want:  Win1,
		},
		{
			name:  "vertical",
			moves: [][2]int{{5, 2}, {5, 2}, {5, 2}, {5, 2}},
			want:  Win2,
		},
		{
			// Staircase: player 1 wins on the up-right diagonal.
			name: "diagonal up-right",
			moves: [][2]int{
				{0, 1},
				{1, 2}, {1, 1},
				{2, 2}, {2, 2}, {2, 1},
				{3, 2}, {3, 2}, {3, 2}, {3, 1},
			},
			want: Win1,
		},
		{
			name: "diagonal down-right",
			moves: [][2]int{
				{3, 1},
				{2, 2}, {2, 1},
				{1, 2}, {1, 2}, {1, 1},
				{0, 2}, {0, 2}, {0, 2}, {0, 1},
			},
			want: Win1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Board
			fill(t, &b, tt.moves...)
			if got := b.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTerminalDraw(t *testing.T) {
	var b Board
	// Columns alternate owner by parity, flipped for the middle two
	// rows. Rows alternate cell-by-cell, columns run at most two deep,
	// and every diagonal crosses an identical row pair at adjacent
	// columns, so the full board has no four-in-a-row.
	pattern := [Columns][Rows]int8{
		{1, 1, 2, 2, 1, 1},
		{2, 2, 1, 1, 2, 2},
		{1, 1, 2, 2, 1, 1},
		{2, 2, 1, 1, 2, 2},
		{1, 1, 2, 2, 1, 1},
		{2, 2, 1, 1, 2, 2},
		{1, 1, 2, 2, 1, 1},
	}
	for col := 0; col < Columns; col++ {
		for i := 0; i < Rows; i++ {
			fill(t, &b, [2]int{col, int(pattern[col][i])})
		}
	}
	if got := b.Terminal(); got != Draw {
		t.Errorf("Terminal() = %v, want Draw", got)
	}
	if len(b.ValidMoves()) != 0 {
		t.Error("full board should have no valid moves")
	}
}

func TestTerminalOngoing(t *testing.T) {
	var b Board
	fill(t, &b, [2]int{3, 1}, [2]int{3, 2}, [2]int{4, 1})
	if got := b.Terminal(); got != Ongoing {
		t.Errorf("Terminal() = %v, want Ongoing", got)
	}
}

func TestWellFormed(t *testing.T) {
	var b Board
	b[2][4] = Player1 // floating disc
	if b.WellFormed() {
		t.Error("board with floating disc should not be well-formed")
	}
}

func TestSessionTurnAlternation(t *testing.T) {
	s := NewSession()
	if !s.MakeMove(3) {
		t.Fatal("first move rejected")
	}
	if s.CurrentPlayer != Player2 {
		t.Errorf("current player = %d, want 2", s.CurrentPlayer)
	}
	if s.MakeMove(9) {
		t.Error("out-of-range move should be rejected")
	}
	if s.CurrentPlayer != Player2 {
		t.Error("rejected move should not change the turn")
	}
}

func TestSessionWinStopsPlay(t *testing.T) {
	s := NewSession()
	// 1 stacks column 0, 2 stacks column 6; player 1 connects first.
	cols := []int{0, 6, 0, 6, 0, 6, 0}
	for _, c := range cols {
		if !s.MakeMove(c) {
			t.Fatalf("move in column %d rejected", c)
		}
	}
	if !s.GameOver {
		t.Fatal("game should be over after four in a row")
	}
	if s.Winner == nil || *s.Winner != Player1 {
		t.Errorf("winner = %v, want player 1", s.Winner)
	}
	if s.MakeMove(1) {
		t.Error("moves after game over should be rejected")
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession()
	s.MakeMove(3)
	s.MakeMove(4)
	s.Reset()
	if !s.IsNewGame() || s.CurrentPlayer != Player1 || s.GameOver {
		t.Error("reset did not restore initial state")
	}
	state := s.GetState()
	if !state.IsNewGame || state.CurrentPlayer != Player1 {
		t.Error("state after reset should report a new game")
	}
}
