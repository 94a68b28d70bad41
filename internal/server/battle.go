package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/battle"
)

func (s *Server) handleCreateGame(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"game_id": s.battles.CreateRoom()})
}

func (s *Server) handleGameState(c *gin.Context) {
	state, err := s.battles.State(c.Param("game_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	c.JSON(http.StatusOK, state)
}

type battleMoveRequest struct {
	Column *int `json:"column"`
	Player *int `json:"player"`
}

func (s *Server) handleGameMove(c *gin.Context) {
	var req battleMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Column == nil || req.Player == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid move parameters"})
		return
	}

	state, err := s.battles.Move(c.Param("game_id"), int8(*req.Player), *req.Column)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "state": state})
	case errors.Is(err, battle.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
	case errors.Is(err, battle.ErrNotYourTurn):
		c.JSON(http.StatusBadRequest, gin.H{"error": "not your turn"})
	case errors.Is(err, battle.ErrInvalidMove):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid move"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
