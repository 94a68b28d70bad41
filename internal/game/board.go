package game

import "errors"

// Board dimensions for Connect-4.
const (
	Rows    = 6
	Columns = 7
)

// Cell values.
const (
	Empty   int8 = 0
	Player1 int8 = 1
	Player2 int8 = 2
)

var (
	ErrColumnFull     = errors.New("column is full")
	ErrColumnOutRange = errors.New("column out of range")
)

// Board is a 6x7 grid, row 0 at the top. Discs occupy the lowest empty
// row of their column, so no column ever has a gap.
type Board [Rows][Columns]int8

// Result of terminal detection.
type Result int

const (
	Ongoing Result = iota
	Win1
	Win2
	Draw
)

// Opponent maps player 1 to 2 and back.
func Opponent(player int8) int8 {
	return 3 - player
}

// IsValidMove reports whether a disc can be dropped in column.
func (b *Board) IsValidMove(column int) bool {
	return column >= 0 && column < Columns && b[0][column] == Empty
}

// ValidMoves enumerates columns that still accept a disc, left to right.
func (b *Board) ValidMoves() []int {
	moves := make([]int, 0, Columns)
	for col := 0; col < Columns; col++ {
		if b[0][col] == Empty {
			moves = append(moves, col)
		}
	}
	return moves
}

// Drop places a disc for player into column and returns the row the
// disc landed in.
func (b *Board) Drop(column int, player int8) (int, error) {
	if column < 0 || column >= Columns {
		return -1, ErrColumnOutRange
	}
	for row := Rows - 1; row >= 0; row-- {
		if b[row][column] == Empty {
			b[row][column] = player
			return row, nil
		}
	}
	return -1, ErrColumnFull
}

// CheckWin reports whether player has four in a row anywhere on the
// board: horizontal, vertical, or either diagonal.
func (b *Board) CheckWin(player int8) bool {
	// Horizontal
	for row := 0; row < Rows; row++ {
		for col := 0; col <= Columns-4; col++ {
			if b[row][col] == player && b[row][col+1] == player &&
				b[row][col+2] == player && b[row][col+3] == player {
				return true
			}
		}
	}
	// Vertical
	for row := 0; row <= Rows-4; row++ {
		for col := 0; col < Columns; col++ {
			if b[row][col] == player && b[row+1][col] == player &&
				b[row+2][col] == player && b[row+3][col] == player {
				return true
			}
		}
	}
	// Diagonal down-right
	for row := 0; row <= Rows-4; row++ {
		for col := 0; col <= Columns-4; col++ {
			if b[row][col] == player && b[row+1][col+1] == player &&
				b[row+2][col+2] == player && b[row+3][col+3] == player {
				return true
			}
		}
	}
	// Diagonal up-right
	for row := 3; row < Rows; row++ {
		for col := 0; col <= Columns-4; col++ {
			if b[row][col] == player && b[row-1][col+1] == player &&
				b[row-2][col+2] == player && b[row-3][col+3] == player {
				return true
			}
		}
	}
	return false
}

// Terminal classifies the board: a win for either player, a draw when
// no column accepts a disc, or ongoing.
func (b *Board) Terminal() Result {
	if b.CheckWin(Player1) {
		return Win1
	}
	if b.CheckWin(Player2) {
		return Win2
	}
	for col := 0; col < Columns; col++ {
		if b[0][col] == Empty {
			return Ongoing
		}
	}
	return Draw
}

// WellFormed reports whether gravity holds: no empty cell sits below a
// filled one in any column.
func (b *Board) WellFormed() bool {
	for col := 0; col < Columns; col++ {
		for row := 1; row < Rows; row++ {
			if b[row][col] == Empty && b[row-1][col] != Empty {
				return false
			}
		}
	}
	return true
}

// Grid returns the board as nested int slices for JSON payloads.
func (b *Board) Grid() [][]int {
	grid := make([][]int, Rows)
	for row := 0; row < Rows; row++ {
		grid[row] = make([]int, Columns)
		for col := 0; col < Columns; col++ {
			grid[row][col] = int(b[row][col])
		}
	}
	return grid
}
