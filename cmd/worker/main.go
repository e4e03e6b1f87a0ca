package main

import (
	"context"
	"encoding/json"
	"log"
	"os/signal"
	"syscall"
	"time"

	"bookstore/internal/catalog"
	"bookstore/internal/config"
	"bookstore/internal/kafkax"
	"bookstore/internal/mail"
	whclient "bookstore/internal/platform/warehouse"
	"bookstore/internal/postgres"
	booksync "bookstore/internal/sync"
	"bookstore/internal/tasks"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")
	cfg := config.LoadWorker()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.DSN)
	if err != nil {
		log.Fatalf("worker: connect database: %v", err)
	}
	defer db.Close()

	catalogRepo := catalog.NewPostgresRepo(db, 5*time.Second)
	warehouseClient := whclient.NewClient(cfg.WarehouseURL, 5, 3)
	syncService := booksync.NewService(warehouseClient, catalogRepo)
	mailer := mail.NewSMTPMailer(cfg.SMTPAddr)

	dispatcher := tasks.NewDispatcher()
	dispatcher.Register(tasks.TaskBookSync, func(ctx context.Context, _ json.RawMessage) error {
		return syncService.Run(ctx)
	})
	dispatcher.Register(tasks.TaskContactMail, func(ctx context.Context, payload json.RawMessage) error {
		p, err := kafkax.UnwrapPayload[tasks.ContactMailPayload](payload)
		if err != nil {
			// Malformed payloads can never succeed, drop them.
			log.Printf("worker: dropping malformed contact mail payload: %v", err)
			return nil
		}
		return mailer.Send(ctx, mail.Message{
			Subject: p.Subject,
			From:    cfg.ContactFrom,
			ReplyTo: p.From,
			To:      p.Recipients,
			Body:    p.Message,
		})
	})

	// Periodic catalog replication, independent of on-demand sync tasks.
	go func() {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		if err := syncService.Run(ctx); err != nil {
			log.Printf("worker: initial sync: %v", err)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := syncService.Run(ctx); err != nil {
					log.Printf("worker: periodic sync: %v", err)
				}
			}
		}
	}()

	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, tasks.Topic, 4)
	log.Printf("worker: consuming %s as group %s", tasks.Topic, cfg.KafkaGroupID)
	if err := consumer.Start(ctx, dispatcher.Handle); err != nil {
		log.Fatalf("worker: consumer error: %v", err)
	}
	log.Println("worker: stopped")
}
