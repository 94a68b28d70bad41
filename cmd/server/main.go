package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	config := LoadConfig()

	srv, err := NewServer(config)
	if err != nil {
		log.Fatalf("[SERVER] startup failed: %v", err)
	}

	// Shut the scheduler down cleanly; in-flight matches stay unsealed
	// and replay when the next boot resumes.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("[SERVER] shutting down")
		srv.Close()
		os.Exit(0)
	}()

	if err := srv.Run(); err != nil {
		log.Fatalf("[SERVER] server stopped: %v", err)
	}
}
