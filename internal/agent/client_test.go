package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/game"
)

func requestMove(t *testing.T, url string, timeout time.Duration) (int, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var board game.Board
	return NewClient().RequestMove(ctx, url, &board, game.Player1, board.ValidMoves())
}

func TestRequestMoveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.CurrentPlayer != game.Player1 {
			t.Errorf("current_player = %d", req.CurrentPlayer)
		}
		if len(req.Board) != game.Rows || len(req.Board[0]) != game.Columns {
			t.Errorf("board shape %dx%d", len(req.Board), len(req.Board[0]))
		}
		if len(req.ValidMoves) != game.Columns {
			t.Errorf("valid_moves = %v", req.ValidMoves)
		}
		json.NewEncoder(w).Encode(map[string]int{"move": 3})
	}))
	defer srv.Close()

	move, err := requestMove(t, srv.URL, time.Second)
	if err != nil {
		t.Fatalf("RequestMove: %v", err)
	}
	if move != 3 {
		t.Errorf("move = %d, want 3", move)
	}
}

func TestRequestMoveTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]int{"move": 0})
	}))
	defer srv.Close()

	_, err := requestMove(t, srv.URL, 30*time.Millisecond)
	if KindOf(err) != FailureTimeout {
		t.Errorf("error = %v, want timeout", err)
	}
}

func TestRequestMoveTransport(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := requestMove(t, srv.URL, time.Second)
			if KindOf(err) != FailureTransport {
				t.Errorf("error = %v, want transport", err)
			}
		})
	}
}

func TestRequestMoveConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listens here any more

	_, err := requestMove(t, url, time.Second)
	if KindOf(err) != FailureTransport {
		t.Errorf("error = %v, want transport", err)
	}
}

func TestRequestMoveMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "who knows"},
		{"missing move field", `{"column": 3}`},
		{"wrong type", `{"move": "three"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			_, err := requestMove(t, srv.URL, time.Second)
			if KindOf(err) != FailureMalformed {
				t.Errorf("error = %v, want malformed", err)
			}
		})
	}
}

func TestRequestMoveIllegal(t *testing.T) {
	tests := []struct {
		name string
		move int
	}{
		{"out of range high", 7},
		{"negative", -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]int{"move": tt.move})
			}))
			defer srv.Close()
			_, err := requestMove(t, srv.URL, time.Second)
			if KindOf(err) != FailureIllegal {
				t.Errorf("error = %v, want illegal", err)
			}
		})
	}
}

func TestRequestMoveFullColumnIsIllegal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"move": 3})
	}))
	defer srv.Close()

	var board game.Board
	for i := 0; i < game.Rows; i++ {
		if _, err := board.Drop(3, game.Player1); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewClient().RequestMove(ctx, srv.URL, &board, game.Player2, board.ValidMoves())
	if KindOf(err) != FailureIllegal {
		t.Errorf("error = %v, want illegal for full column", err)
	}
}

func TestKindOfUnknownError(t *testing.T) {
	if KindOf(context.Canceled) != FailureTransport {
		t.Error("unknown errors should classify as transport")
	}
}
