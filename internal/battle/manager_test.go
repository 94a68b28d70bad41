package battle

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/bot"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/game"
)

func newTestManager() *Manager {
	return NewManager(bot.New(1))
}

// drain empties a client's send buffer and returns the decoded messages.
func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var msgs []Message
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return msgs
			}
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("bad message %q: %v", data, err)
			}
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

// waitFor reads messages until one matches the type or the deadline hits.
func waitFor(t *testing.T, c *Client, msgType string, timeout time.Duration) Message {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case data := <-c.Send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("bad message %q: %v", data, err)
			}
			if msg.Type == msgType {
				return msg
			}
		case <-deadline:
			t.Fatalf("no %s message within %v", msgType, timeout)
		}
	}
}

func intPtr(v int) *int { return &v }

func TestJoinAssignsSeatsThenSpectators(t *testing.T) {
	m := newTestManager()
	id := m.CreateRoom()

	first := m.Join(id)
	second := m.Join(id)
	third := m.Join(id)

	if first.Player != 1 || second.Player != 2 || third.Player != 0 {
		t.Fatalf("seats = %d/%d/%d, want 1/2/0", first.Player, second.Player, third.Player)
	}

	msgs := drain(t, first)
	if len(msgs) == 0 || msgs[0].Type != "game_state" {
		t.Fatalf("first message = %+v, want game_state", msgs)
	}
	if msgs[0].YourPlayer != 1 || msgs[0].State == nil {
		t.Errorf("initial game_state = %+v", msgs[0])
	}

	// The earlier joiner hears about the later ones, not itself.
	joined := 0
	for _, msg := range msgs[1:] {
		if msg.Type == "player_joined" {
			joined++
		}
	}
	if joined != 2 {
		t.Errorf("player_joined notices = %d, want 2", joined)
	}
}

func TestMovesAlternateAndBroadcast(t *testing.T) {
	m := newTestManager()
	id := m.CreateRoom()
	p1 := m.Join(id)
	p2 := m.Join(id)
	drain(t, p1)
	drain(t, p2)

	m.HandleMessage(id, p1, Message{Type: "make_move", Column: intPtr(3)})
	update := waitFor(t, p2, "game_update", time.Second)
	if update.State == nil || update.State.CurrentPlayer != game.Player2 {
		t.Fatalf("after move state = %+v, want player 2 to move", update.State)
	}

	// Out of turn: p1 again. No update should reach anyone.
	m.HandleMessage(id, p1, Message{Type: "make_move", Column: intPtr(3)})
	if msgs := drain(t, p2); len(msgs) != 0 {
		t.Errorf("out-of-turn move produced %+v", msgs)
	}

	// Spectators cannot move at all.
	watcher := m.Join(id)
	drain(t, watcher)
	drain(t, p1)
	drain(t, p2)
	m.HandleMessage(id, watcher, Message{Type: "make_move", Column: intPtr(0)})
	if msgs := drain(t, p1); len(msgs) != 0 {
		t.Errorf("spectator move produced %+v", msgs)
	}
}

func TestRestMoveValidation(t *testing.T) {
	m := newTestManager()
	id := m.CreateRoom()

	if _, err := m.Move("missing", game.Player1, 3); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("move in missing room = %v, want %v", err, ErrRoomNotFound)
	}
	if _, err := m.Move(id, game.Player2, 3); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("out-of-turn move = %v, want %v", err, ErrNotYourTurn)
	}
	if _, err := m.Move(id, game.Player1, 9); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("move in column 9 = %v, want %v", err, ErrInvalidMove)
	}

	state, err := m.Move(id, game.Player1, 3)
	if err != nil {
		t.Fatalf("valid move: %v", err)
	}
	if state.CurrentPlayer != game.Player2 {
		t.Errorf("current player = %d, want 2", state.CurrentPlayer)
	}
}

func TestAgentModeBotAnswers(t *testing.T) {
	m := newTestManager()
	id := m.CreateRoom()
	p1 := m.Join(id)
	drain(t, p1)

	m.HandleMessage(id, p1, Message{Type: "start_agent_game"})
	started := waitFor(t, p1, "game_state", time.Second)
	if !started.AgentMode {
		t.Fatal("game_state after start_agent_game lacks agent_mode")
	}

	m.HandleMessage(id, p1, Message{Type: "make_move", Column: intPtr(3)})
	// First update is the human move, the second the bot's reply.
	human := waitFor(t, p1, "game_update", time.Second)
	if human.AIMove != nil {
		t.Fatal("first update unexpectedly carries ai_move")
	}
	reply := waitFor(t, p1, "game_update", 3*time.Second)
	if reply.AIMove == nil {
		t.Fatal("bot reply lacks ai_move")
	}
	if reply.State == nil || reply.State.CurrentPlayer != game.Player1 {
		t.Errorf("after bot reply state = %+v, want player 1 to move", reply.State)
	}
}

func TestResetKeepsAgentMode(t *testing.T) {
	m := newTestManager()
	id := m.CreateRoom()
	p1 := m.Join(id)
	drain(t, p1)

	m.HandleMessage(id, p1, Message{Type: "start_agent_game"})
	waitFor(t, p1, "game_state", time.Second)

	m.HandleMessage(id, p1, Message{Type: "make_move", Column: intPtr(0)})
	waitFor(t, p1, "game_update", time.Second)

	m.HandleMessage(id, p1, Message{Type: "reset_game"})
	reset := waitFor(t, p1, "game_state", time.Second)
	if !reset.AgentMode {
		t.Error("reset dropped agent mode")
	}
	if reset.State == nil || reset.State.CurrentPlayer != game.Player1 {
		t.Errorf("reset state = %+v, want fresh board", reset.State)
	}
}

func TestLeaveTearsDownEmptyRoom(t *testing.T) {
	m := newTestManager()
	id := m.CreateRoom()
	p1 := m.Join(id)
	p2 := m.Join(id)
	drain(t, p1)
	drain(t, p2)

	m.Leave(id, p2)
	left := waitFor(t, p1, "player_left", time.Second)
	if left.Player != 2 {
		t.Errorf("player_left.player = %d, want 2", left.Player)
	}

	m.Leave(id, p1)
	if _, err := m.State(id); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("state after last leave = %v, want %v", err, ErrRoomNotFound)
	}
}
