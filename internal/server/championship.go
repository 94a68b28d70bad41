package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/auth"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/championship"
)

type registerRequest struct {
	TeamName    string `json:"team_name"`
	APIEndpoint string `json:"api_endpoint"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	team, err := s.controller.Register(req.TeamName, req.APIEndpoint)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "team registered",
			"team_id": team.ID,
		})
	case errors.Is(err, championship.ErrRegistrationClosed):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, championship.ErrDuplicateTeamName),
		errors.Is(err, championship.ErrChampionshipFull):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, championship.ErrInvalidTeamName),
		errors.Is(err, championship.ErrInvalidEndpoint):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "server error"})
	}
}

func (s *Server) handleStart(c *gin.Context) {
	err := s.controller.Start()
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "championship started"})
	case errors.Is(err, championship.ErrAlreadyStarted),
		errors.Is(err, championship.ErrNotEnoughTeams):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "server error"})
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.Status())
}

func (s *Server) handleSchedule(c *gin.Context) {
	rounds, err := s.controller.ScheduleView()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	entries, err := s.controller.LeaderboardView()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleMatch(c *gin.Context) {
	m, err := s.controller.Match(c.Param("match_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	token, err := s.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// handleClearCache wipes teams, schedule, matches, and standings and
// returns the championship to waiting.
func (s *Server) handleClearCache(c *gin.Context) {
	if err := s.controller.Reset(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "championship reset"})
}

// handleRestart stops in-flight matches and returns to waiting while
// keeping teams, schedule, and sealed results.
func (s *Server) handleRestart(c *gin.Context) {
	if err := s.controller.Restart(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "championship restarted"})
}
