// Package notifier publishes product mirror changes to Kafka so downstream
// consumers (search indexing, storefront rebuilds) can react to them.
package notifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/env"
)

const (
	DefaultTopic = "onlyone.products"

	OperationPublished = "published"
	OperationDeleted   = "deleted"
)

type Config struct {
	Brokers []string
	Topic   string
}

// LoadConfig reads KAFKA_BROKERS (comma separated) and KAFKA_PRODUCT_TOPIC.
func LoadConfig() Config {
	var brokers []string
	for _, b := range strings.Split(env.GetEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return Config{
		Brokers: brokers,
		Topic:   env.GetEnv("KAFKA_PRODUCT_TOPIC", DefaultTopic),
	}
}

func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// ProductEvent is the message value written for every mirror change
type ProductEvent struct {
	EventID           string    `json:"event_id"`
	Operation         string    `json:"operation"`
	OccurredAt        time.Time `json:"occurred_at"`
	ProviderProductID string    `json:"provider_product_id"`
	PublicID          string    `json:"public_id"`
	Handle            string    `json:"handle"`
	Title             string    `json:"title"`
	Status            string    `json:"status"`
	PriceMin          int64     `json:"price_min"`
	PriceMax          int64     `json:"price_max"`
	Currency          string    `json:"currency"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka writes product change events keyed by provider product id, so all
// changes of one product land on the same partition in order.
type Kafka struct {
	writer messageWriter
}

func NewKafka(cfg Config) *Kafka {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              10,
		BatchTimeout:           200 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}}
}

func (k *Kafka) ProductPublished(ctx context.Context, p *models.Product) error {
	return k.write(ctx, OperationPublished, p)
}

func (k *Kafka) ProductDeleted(ctx context.Context, p *models.Product) error {
	return k.write(ctx, OperationDeleted, p)
}

func (k *Kafka) write(ctx context.Context, op string, p *models.Product) error {
	msg, err := buildMessage(op, p, time.Now().UTC())
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, msg)
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

func buildMessage(op string, p *models.Product, now time.Time) (kafka.Message, error) {
	value, err := json.Marshal(ProductEvent{
		EventID:           uuid.NewString(),
		Operation:         op,
		OccurredAt:        now,
		ProviderProductID: p.ProviderProductID,
		PublicID:          p.PublicID,
		Handle:            p.Handle,
		Title:             p.Title,
		Status:            p.Status,
		PriceMin:          p.PriceMin,
		PriceMax:          p.PriceMax,
		Currency:          p.Currency,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(p.ProviderProductID),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(op)},
		},
	}, nil
}

// Noop discards every change. Used when no brokers are configured.
type Noop struct{}

func (Noop) ProductPublished(context.Context, *models.Product) error { return nil }
func (Noop) ProductDeleted(context.Context, *models.Product) error   { return nil }
func (Noop) Close() error                                            { return nil }

// Notifier is implemented by Kafka and Noop
type Notifier interface {
	ProductPublished(ctx context.Context, p *models.Product) error
	ProductDeleted(ctx context.Context, p *models.Product) error
	Close() error
}

// New returns a Kafka notifier when brokers are configured, otherwise Noop.
func New(cfg Config) Notifier {
	if !cfg.Enabled() {
		log.Info("[Notifier] KAFKA_BROKERS not set, product change notifications disabled")
		return Noop{}
	}
	log.Infof("[Notifier] publishing product changes to %s on %v", cfg.Topic, cfg.Brokers)
	return NewKafka(cfg)
}
