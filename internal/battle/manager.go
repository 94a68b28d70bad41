// Package battle runs casual head-to-head games outside the
// championship: two humans in a shared room, or one human against the
// built-in bot. Rooms live in memory and vanish when the last
// connection leaves.
package battle

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/bot"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/game"
)

var (
	ErrRoomNotFound = errors.New("battle: room not found")
	ErrNotYourTurn  = errors.New("battle: not your turn")
	ErrInvalidMove  = errors.New("battle: invalid move")
)

// botThinkDelay makes bot replies feel deliberate instead of instant.
const botThinkDelay = 500 * time.Millisecond

// Message is the wire format on battle sockets, both directions.
type Message struct {
	Type       string      `json:"type"`
	State      *game.State `json:"state,omitempty"`
	YourPlayer int         `json:"your_player,omitempty"`
	AgentMode  bool        `json:"agent_mode,omitempty"`
	Player     int         `json:"player,omitempty"`
	Column     *int        `json:"column,omitempty"`
	AIMove     *int        `json:"ai_move,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Client is one socket in a room. Player is 1 or 2 for seated players
// and 0 for spectators. Writes go through the buffered Send channel;
// a full buffer drops the message rather than blocking the room.
type Client struct {
	Player int
	Send   chan []byte
}

func (c *Client) deliver(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

type room struct {
	mu          sync.Mutex
	session     *game.Session
	playerCount int
	agentMode   bool
	clients     map[*Client]struct{}
}

func (r *room) broadcast(msg Message, exclude *Client) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for c := range r.clients {
		if c == exclude {
			continue
		}
		select {
		case c.Send <- data:
		default:
		}
	}
}

// Manager owns every battle room.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*room
	bot   *bot.Strategy
}

func NewManager(strategy *bot.Strategy) *Manager {
	return &Manager{
		rooms: make(map[string]*room),
		bot:   strategy,
	}
}

// CreateRoom makes an empty room and returns its id.
func (m *Manager) CreateRoom() string {
	id := uuid.New().String()
	m.mu.Lock()
	m.rooms[id] = &room{
		session: game.NewSession(),
		clients: make(map[*Client]struct{}),
	}
	m.mu.Unlock()
	log.Printf("[BATTLE] created room %s", id)
	return id
}

// State returns the current game state of a room.
func (m *Manager) State(id string) (game.State, error) {
	r, ok := m.room(id)
	if !ok {
		return game.State{}, ErrRoomNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.GetState(), nil
}

// Move plays one move over REST on behalf of a seated player and
// returns the resulting state. Connected sockets see a game_update.
func (m *Manager) Move(id string, player int8, column int) (game.State, error) {
	r, ok := m.room(id)
	if !ok {
		return game.State{}, ErrRoomNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session.CurrentPlayer != player {
		return game.State{}, ErrNotYourTurn
	}
	if !r.session.MakeMove(column) {
		return game.State{}, ErrInvalidMove
	}
	state := r.session.GetState()
	r.broadcast(Message{Type: "game_update", State: &state}, nil)
	return state, nil
}

// Join attaches a socket to a room, creating the room on first use.
// The first two joiners get seats 1 and 2; the rest spectate. The new
// client receives the full game state and everyone else a
// player_joined notice.
func (m *Manager) Join(id string) *Client {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if !ok {
		r = &room{
			session: game.NewSession(),
			clients: make(map[*Client]struct{}),
		}
		m.rooms[id] = r
		log.Printf("[BATTLE] created room %s on join", id)
	}
	m.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	client := &Client{Send: make(chan []byte, 256)}
	if r.playerCount < 2 {
		r.playerCount++
		client.Player = r.playerCount
	}
	r.clients[client] = struct{}{}
	log.Printf("[BATTLE] player %d joined room %s", client.Player, id)

	state := r.session.GetState()
	client.deliver(Message{
		Type:       "game_state",
		State:      &state,
		YourPlayer: client.Player,
		AgentMode:  r.agentMode,
	})
	r.broadcast(Message{Type: "player_joined", Player: client.Player}, client)
	return client
}

// Leave detaches a socket. The last one out tears the room down.
func (m *Manager) Leave(id string, client *Client) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	r.mu.Lock()
	delete(r.clients, client)
	empty := len(r.clients) == 0
	if empty {
		delete(m.rooms, id)
	}
	r.mu.Unlock()
	m.mu.Unlock()

	close(client.Send)
	if empty {
		log.Printf("[BATTLE] removed room %s, no players remaining", id)
		return
	}
	r.mu.Lock()
	r.broadcast(Message{Type: "player_left", Player: client.Player}, nil)
	r.mu.Unlock()
}

// HandleMessage processes one inbound socket message.
func (m *Manager) HandleMessage(id string, client *Client, msg Message) {
	r, ok := m.room(id)
	if !ok {
		client.deliver(Message{Type: "error", Error: "game not found"})
		return
	}

	switch msg.Type {
	case "make_move":
		if msg.Column == nil {
			client.deliver(Message{Type: "error", Error: "missing column"})
			return
		}
		m.handleMove(id, r, client, *msg.Column)

	case "start_agent_game":
		r.mu.Lock()
		r.agentMode = true
		r.session.Reset()
		state := r.session.GetState()
		r.broadcast(Message{
			Type:       "game_state",
			State:      &state,
			YourPlayer: client.Player,
			AgentMode:  true,
		}, nil)
		r.mu.Unlock()
		log.Printf("[BATTLE] room %s switched to agent mode", id)

	case "reset_game":
		r.mu.Lock()
		r.session.Reset()
		state := r.session.GetState()
		r.broadcast(Message{
			Type:       "game_state",
			State:      &state,
			YourPlayer: client.Player,
			AgentMode:  r.agentMode,
		}, nil)
		r.mu.Unlock()

	default:
		client.deliver(Message{Type: "error", Error: "unknown message type"})
	}
}

func (m *Manager) handleMove(id string, r *room, client *Client, column int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client.Player == 0 {
		log.Printf("[BATTLE] spectator tried to move in room %s", id)
		return
	}
	// In agent mode the human always holds seat 1.
	myTurn := int(r.session.CurrentPlayer) == client.Player ||
		(r.agentMode && client.Player == 1 && r.session.CurrentPlayer == game.Player1)
	if !myTurn || r.session.GameOver {
		log.Printf("[BATTLE] rejected move by player %d in room %s", client.Player, id)
		return
	}
	if !r.session.MakeMove(column) {
		log.Printf("[BATTLE] invalid move by player %d in column %d", client.Player, column)
		return
	}

	state := r.session.GetState()
	r.broadcast(Message{Type: "game_update", State: &state}, nil)

	if r.agentMode && !r.session.GameOver && r.session.CurrentPlayer == game.Player2 {
		go m.playBotMove(id, r)
	}
}

// playBotMove answers for seat 2 after a short delay. The room may
// have been reset or won in the meantime, so the turn is re-checked
// under the lock.
func (m *Manager) playBotMove(id string, r *room) {
	time.Sleep(botThinkDelay)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.agentMode || r.session.GameOver || r.session.CurrentPlayer != game.Player2 {
		return
	}

	column := m.bot.Choose(&r.session.Board, game.Player2)
	if !r.session.MakeMove(column) {
		log.Printf("[BATTLE] bot produced invalid column %d in room %s", column, id)
		return
	}
	state := r.session.GetState()
	r.broadcast(Message{Type: "game_update", State: &state, AIMove: &column}, nil)
}

func (m *Manager) room(id string) (*room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}
