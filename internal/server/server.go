// Package server exposes the championship over HTTP: the admin API,
// the battle-mode API, and the websocket endpoints spectators attach
// to.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/auth"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/battle"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/championship"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/events"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/middleware"
)

// Server bundles the HTTP dependencies.
type Server struct {
	controller  *championship.Controller
	broadcaster *events.Broadcaster
	battles     *battle.Manager
	authService *auth.Service

	limiter       *middleware.RateLimiter
	battleLimiter *middleware.BattleActionLimiter
	upgrader      websocket.Upgrader
}

func New(controller *championship.Controller, b *events.Broadcaster, battles *battle.Manager, authService *auth.Service) *Server {
	return &Server{
		controller:    controller,
		broadcaster:   b,
		battles:       battles,
		authService:   authService,
		limiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig),
		battleLimiter: middleware.NewBattleActionLimiter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the gin engine with every endpoint attached.
func (s *Server) Routes() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400 * time.Second,
	}))

	api := r.Group("/api")
	api.Use(s.limiter.Handler())
	{
		api.POST("/championship/register", s.handleRegister)
		api.POST("/championship/start", s.handleStart)
		api.GET("/championship/status", s.handleStatus)
		api.GET("/championship/schedule", s.handleSchedule)
		api.GET("/championship/leaderboard", s.handleLeaderboard)
		api.GET("/championship/match/:match_id", s.handleMatch)

		api.POST("/create-game", s.handleCreateGame)
		api.GET("/game/:game_id/state", s.handleGameState)
		api.POST("/game/:game_id/move", s.handleGameMove)

		api.POST("/admin/login", s.handleAdminLogin)

		admin := api.Group("/")
		admin.Use(middleware.AdminOnly(s.authService))
		{
			admin.POST("/clear-cache", s.handleClearCache)
			admin.POST("/championship/restart", s.handleRestart)
		}
	}

	r.GET("/ws/dashboard", s.handleDashboardSocket)
	r.GET("/ws/match/:match_id", s.handleMatchSocket)
	r.GET("/ws/game/:game_id", s.handleBattleSocket)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

// Close releases background resources.
func (s *Server) Close() {
	s.limiter.Stop()
	s.battleLimiter.Stop()
}
