package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bookstore/internal/auth"
	"bookstore/internal/cart"
	"bookstore/internal/catalog"
	"bookstore/internal/config"
	"bookstore/internal/contact"
	"bookstore/internal/httpx"
	"bookstore/internal/kafkax"
	whclient "bookstore/internal/platform/warehouse"
	"bookstore/internal/postgres"
	"bookstore/internal/redisx"
	"bookstore/internal/tasks"
	"bookstore/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")
	cfg := config.LoadStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.DSN)
	if err != nil {
		log.Fatalf("store: connect database: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	producer := kafkax.NewProducer(cfg.KafkaBrokers, tasks.Topic, 256)
	producer.Start()
	queue := tasks.NewQueue(producer, "store")

	userRepo := user.NewPostgresRepo(db, 5*time.Second)
	catalogRepo := catalog.NewPostgresRepo(db, 5*time.Second)
	cartRepo := cart.NewPostgresRepo(db)
	warehouseClient := whclient.NewClient(cfg.WarehouseURL, 5, 3)

	authService := auth.NewService(cfg.JWTSecret, 24*time.Hour, userRepo)
	catalogService := catalog.NewService(catalogRepo)
	cartService := cart.NewService(cartRepo, userRepo, warehouseClient)

	authHandler := auth.NewHTTPHandler(authService)
	catalogHandler := catalog.NewHTTPHandler(catalogService, rdb)
	cartHandler := cart.NewHTTPHandler(cartService)
	contactHandler := contact.NewHTTPHandler(queue, cfg.ContactRecipients)

	rateLimit := httpx.NewRateLimitMiddleware(20, 40)

	r := chi.NewRouter()
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.RecoveryMiddleware)
	r.Use(httpx.AccessLogMiddleware)
	r.Use(httpx.RequestSizeLimitMiddleware(1 << 20))
	r.Use(rateLimit.Middleware)

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

	r.Group(func(r chi.Router) {
		r.Get("/books", catalogHandler.List)
		r.Get("/books/{id}", catalogHandler.GetByID)
		r.Get("/genres", catalogHandler.ListGenres)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		contactHandler.RegisterRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(httpx.AuthMiddleware(cfg.JWTSecret))
		r.Get("/me", authHandler.Me)
		r.Patch("/me", authHandler.UpdateMe)
		cartHandler.RegisterRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(httpx.AuthMiddleware(cfg.JWTSecret))
		r.Use(httpx.RequireRole(user.RoleAdmin))
		cartHandler.RegisterAdminRoutes(r)
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("store: listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("store: server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("store: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("store: shutdown: %v", err)
	}
	// close the producer only after in-flight requests have drained
	producer.Close()
	producer.WaitClosed()
	log.Println("store: stopped")
}
