package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/agent"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/auth"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/battle"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/bot"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/championship"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/events"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/redis"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/server"
	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/store"
)

// Server wires the store, controller, battle rooms, and HTTP surface
// together.
type Server struct {
	config Config

	controller *championship.Controller
	httpServer *server.Server

	redisClient *redis.Client
	relayCancel context.CancelFunc
}

// NewServer builds every dependency and resumes any championship that
// was mid-flight when the previous process stopped.
func NewServer(config Config) (*Server, error) {
	st, err := store.NewGorm(config.StoreConfig)
	if err != nil {
		return nil, err
	}

	broadcaster := events.NewBroadcaster()

	var redisClient *redis.Client
	var relayCancel context.CancelFunc
	if config.RedisEnable {
		redisClient, err = redis.New(config.RedisConfig)
		if err != nil {
			// The relay is an optional layer; a single instance works
			// without it.
			log.Printf("[SERVER] redis unavailable, running without event relay: %v", err)
		} else {
			relay := redis.NewRelay(redisClient, broadcaster)
			var ctx context.Context
			ctx, relayCancel = context.WithCancel(context.Background())
			relay.Start(ctx)
		}
	}

	controller := championship.New(config.Championship, st, broadcaster, agent.NewClient())
	if err := controller.Resume(); err != nil {
		log.Printf("[SERVER] resume failed, starting clean: %v", err)
	}

	authService := auth.NewService(config.JWTSecret, config.AdminPasswordHash)
	battles := battle.NewManager(bot.New(0))

	return &Server{
		config:      config,
		controller:  controller,
		httpServer:  server.New(controller, broadcaster, battles, authService),
		redisClient: redisClient,
		relayCancel: relayCancel,
	}, nil
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run() error {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := s.httpServer.Routes()
	log.Printf("[SERVER] listening on port %s", s.config.ServerPort)
	return r.Run(":" + s.config.ServerPort)
}

// Close stops the scheduler and releases connections.
func (s *Server) Close() {
	s.controller.Close()
	s.httpServer.Close()
	if s.relayCancel != nil {
		s.relayCancel()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
}
