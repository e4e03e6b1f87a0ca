package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bookstore/internal/auth"
	"bookstore/internal/config"
	"bookstore/internal/httpx"
	"bookstore/internal/postgres"
	"bookstore/internal/redisx"
	"bookstore/internal/user"
	"bookstore/internal/warehouse"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")
	cfg := config.LoadWarehouse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.DSN)
	if err != nil {
		log.Fatalf("warehouse: connect database: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	repo := warehouse.NewPostgresRepo(db)
	service := warehouse.NewService(repo, rdb)
	handler := warehouse.NewHTTPHandler(service)

	userRepo := user.NewPostgresRepo(db, 5*time.Second)
	authService := auth.NewService(cfg.JWTSecret, 24*time.Hour, userRepo)
	authHandler := auth.NewHTTPHandler(authService)

	r := chi.NewRouter()
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.RecoveryMiddleware)
	r.Use(httpx.AccessLogMiddleware)
	r.Use(httpx.RequestSizeLimitMiddleware(1 << 20))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		pingCtx, cancel := context.WithTimeout(req.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Reads and order intake are open; GET /books and POST /orders/ carry the
	// payload shapes the store consumes.
	handler.RegisterPublicRoutes(r)
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(httpx.AuthMiddleware(cfg.JWTSecret))
		r.Get("/me", authHandler.Me)
		r.Patch("/me", authHandler.UpdateMe)
		handler.RegisterStaffRoutes(r)
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("warehouse: listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("warehouse: server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("warehouse: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("warehouse: shutdown: %v", err)
	}
	log.Println("warehouse: stopped")
}
