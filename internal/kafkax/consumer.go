package kafkax

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler must return nil only when the message was fully processed and its
// offset may be committed. A non-nil error leaves the offset uncommitted so
// the message is redelivered.
type Handler func(ctx context.Context, m kafka.Message) error

// messageSource is the slice of kafka.Reader the consume loop needs.
type messageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Consumer runs one sequential fetch-handle-commit loop per reader. Readers
// share a group id, so the broker spreads partitions across them; within a
// reader commits happen strictly in fetch order, which keeps an uncommitted
// failure from being masked by a later commit on the same partition.
type Consumer struct {
	readers []*kafka.Reader
}

func NewConsumer(brokers []string, group, topic string, readers int) *Consumer {
	if readers <= 0 {
		readers = 1
	}
	c := &Consumer{readers: make([]*kafka.Reader, 0, readers)}
	for i := 0; i < readers; i++ {
		c.readers = append(c.readers, kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        group,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0, // manual commit
		}))
	}
	return c
}

// Start blocks until the context is cancelled or a reader fails.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(c.readers))

	for _, r := range c.readers {
		wg.Add(1)
		go func(r *kafka.Reader) {
			defer wg.Done()
			defer r.Close()
			if err := consumeLoop(ctx, r, h); err != nil {
				errs <- err
			}
		}(r)
	}
	wg.Wait()
	close(errs)
	return <-errs
}

func consumeLoop(ctx context.Context, src messageSource, h Handler) error {
	for {
		m, err := src.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := h(ctx, m); err != nil {
			// no commit: the offset stays pending and is redelivered
			log.Printf("kafka consumer: handler error: %v", err)
			time.Sleep(200 * time.Millisecond)
			continue
		}
		if err := src.CommitMessages(ctx, m); err != nil {
			log.Printf("kafka consumer: commit failed: %v", err)
		}
	}
}
