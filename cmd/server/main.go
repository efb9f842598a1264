package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/nuv-canteen/api/internal/config"
	"github.com/nuv-canteen/api/internal/database"
	"github.com/nuv-canteen/api/internal/router"
	"github.com/nuv-canteen/api/internal/service"
	"github.com/nuv-canteen/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	queries := database.New(pool)

	sessions := service.NewSessionManager(service.UPIAdapter{}, queries, cfg.PaymentTimeout)

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, queries, sessions, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
