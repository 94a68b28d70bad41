package server

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/battle"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/events"
)

// handleDashboardSocket streams the dashboard topic. The subscriber
// queue arrives pre-seeded with initial_state.
func (s *Server) handleDashboardSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] dashboard upgrade failed: %v", err)
		return
	}
	sub := s.broadcaster.Subscribe(events.TopicDashboard)
	s.streamEvents(conn, sub, nil)
}

// handleMatchSocket streams one match topic. Connecting and leaving
// both bump the spectator count everyone on the topic sees.
func (s *Server) handleMatchSocket(c *gin.Context) {
	matchID := c.Param("match_id")
	if _, err := s.controller.Match(matchID); err != nil {
		c.JSON(404, gin.H{"error": "match not found"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] match upgrade failed: %v", err)
		return
	}
	sub := s.broadcaster.Subscribe(events.MatchTopic(matchID))
	s.controller.NotifySpectators(matchID)
	s.streamEvents(conn, sub, func() {
		s.controller.NotifySpectators(matchID)
	})
}

// streamEvents pumps subscriber events to the socket until either side
// goes away. The read loop exists only to observe the peer closing.
func (s *Server) streamEvents(conn *websocket.Conn, sub *events.Subscriber, onDetach func()) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer conn.Close()
		for {
			ev, ok := sub.Next(ctx)
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	s.broadcaster.Unsubscribe(sub)
	conn.Close()
	if onDetach != nil {
		onDetach()
	}
}

// handleBattleSocket attaches a socket to a battle room, creating the
// room on first join like the REST create-game endpoint does.
func (s *Server) handleBattleSocket(c *gin.Context) {
	gameID := c.Param("game_id")
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] battle upgrade failed: %v", err)
		return
	}
	clientID := c.ClientIP()

	client := s.battles.Join(gameID)

	go func() {
		defer conn.Close()
		for data := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
		conn.WriteMessage(websocket.CloseMessage, []byte{})
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg battle.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[WS] bad battle message in room %s: %v", gameID, err)
			continue
		}
		if msg.Type == "make_move" && !s.battleLimiter.AllowAction(clientID) {
			continue
		}
		s.battles.HandleMessage(gameID, client, msg)
	}
	s.battles.Leave(gameID, client)
}
