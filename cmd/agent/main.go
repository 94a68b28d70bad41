// The agent command serves the built-in heuristic player over the
// championship move protocol, so it can be registered as one more
// team or used to smoke-test the coordinator.
package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/agent"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/bot"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/game"
)

func main() {
	godotenv.Load()

	port := os.Getenv("AGENT_PORT")
	if port == "" {
		port = "8090"
	}
	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	strategy := bot.New(time.Now().UnixNano())

	r := gin.Default()
	r.POST("/", func(c *gin.Context) {
		var req agent.MoveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		board, err := boardFromGrid(req.Board)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		move := strategy.Choose(board, req.CurrentPlayer)
		c.JSON(http.StatusOK, agent.MoveResponse{Move: &move})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Printf("[AGENT] listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("[AGENT] server stopped: %v", err)
	}
}

var errBadBoard = errors.New("board must be a 6x7 grid of 0/1/2")

func boardFromGrid(grid [][]int) (*game.Board, error) {
	var board game.Board
	if len(grid) != game.Rows {
		return nil, errBadBoard
	}
	for r, row := range grid {
		if len(row) != game.Columns {
			return nil, errBadBoard
		}
		for c, cell := range row {
			if cell < 0 || cell > 2 {
				return nil, errBadBoard
			}
			board[r][c] = int8(cell)
		}
	}
	return &board, nil
}
