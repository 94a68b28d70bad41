// Package redis relays spectator events between server instances over
// pub/sub, so dashboards attached to one replica see matches running
// on another.
package redis

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds connection settings for the event relay.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Client is the connection the relay publishes and subscribes on.
type Client struct {
	*redis.Client
}

// New dials Redis and verifies the connection. The relay is the only
// consumer, so the pool stays small.
func New(cfg Config) (*Client, error) {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
		PoolSize:    4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	log.Printf("[REDIS] connected to %s", addr)
	return &Client{Client: client}, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
