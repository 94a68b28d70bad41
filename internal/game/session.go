package game

// Session is a single free-standing Connect-4 game, used by the battle
// mode rooms. The championship coordinator drives boards directly and
// does not use Session.
type Session struct {
	Board         Board
	CurrentPlayer int8
	GameOver      bool
	Winner        *int8
}

// NewSession returns a fresh game with player 1 to move.
func NewSession() *Session {
	return &Session{CurrentPlayer: Player1}
}

// Reset clears the board and restores the initial turn order.
func (s *Session) Reset() {
	s.Board = Board{}
	s.CurrentPlayer = Player1
	s.GameOver = false
	s.Winner = nil
}

// MakeMove drops a disc for the current player. It returns false when
// the game is over or the column is not playable; on success the turn
// passes to the opponent unless the move ended the game.
func (s *Session) MakeMove(column int) bool {
	if s.GameOver || !s.Board.IsValidMove(column) {
		return false
	}
	if _, err := s.Board.Drop(column, s.CurrentPlayer); err != nil {
		return false
	}

	if s.Board.CheckWin(s.CurrentPlayer) {
		winner := s.CurrentPlayer
		s.Winner = &winner
		s.GameOver = true
	} else if len(s.Board.ValidMoves()) == 0 {
		s.GameOver = true
	} else {
		s.CurrentPlayer = Opponent(s.CurrentPlayer)
	}
	return true
}

// IsNewGame reports whether at most one disc has been placed.
func (s *Session) IsNewGame() bool {
	count := 0
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if s.Board[row][col] != Empty {
				count++
			}
		}
	}
	return count <= 1
}

// State is the wire representation sent to battle-mode clients.
type State struct {
	Board         [][]int `json:"board"`
	CurrentPlayer int8    `json:"current_player"`
	GameOver      bool    `json:"game_over"`
	Winner        *int8   `json:"winner"`
	IsNewGame     bool    `json:"is_new_game"`
}

// GetState materializes the session for JSON clients.
func (s *Session) GetState() State {
	return State{
		Board:         s.Board.Grid(),
		CurrentPlayer: s.CurrentPlayer,
		GameOver:      s.GameOver,
		Winner:        s.Winner,
		IsNewGame:     s.IsNewGame(),
	}
}
