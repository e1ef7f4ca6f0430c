package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/nexus-commerce/pkg/config"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	dialTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
)

var (
	errNoBrokers = errors.New("kafka brokers are required")
	errNoTopic   = errors.New("kafka topic is required")
)

// Client builds writers and readers for the domain events topic.
type Client struct {
	brokers []string
	topic   string
	groupID string
}

// NewClient validates the broker configuration.
func NewClient(ctx context.Context, cfg config.KafkaConfig, logg *logger.Logger) (*Client, error) {
	brokers := normalizeBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		return nil, errNoTopic
	}
	c := &Client{brokers: brokers, topic: topic, groupID: strings.TrimSpace(cfg.ConsumerGroup)}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"brokers": strings.Join(brokers, ","), "topic": topic}), "kafka client configured")
	}
	return c, nil
}

func normalizeBrokers(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, b := range strings.Split(entry, ",") {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
	}
	return out
}

// Topic returns the domain events topic name.
func (c *Client) Topic() string { return c.topic }

// Brokers returns a copy of the broker list.
func (c *Client) Brokers() []string {
	return append([]string(nil), c.brokers...)
}

// Ping dials the first reachable broker.
func (c *Client) Ping(ctx context.Context) error {
	dialer := &kafkago.Dialer{Timeout: dialTimeout}
	var errs []error
	for _, broker := range c.brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", broker, err))
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("kafka unreachable: %w", errors.Join(errs...))
}

// NewWriter returns a writer keyed by aggregate id so one aggregate's events stay ordered.
func (c *Client) NewWriter() *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(c.brokers...),
		Topic:                  c.topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}
}

// NewReader returns a consumer-group reader; offsets are committed explicitly.
func (c *Client) NewReader(groupID string) (*kafkago.Reader, error) {
	if groupID = strings.TrimSpace(groupID); groupID == "" {
		groupID = c.groupID
	}
	if groupID == "" {
		return nil, errors.New("kafka consumer group is required")
	}
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        c.brokers,
		Topic:          c.topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	}), nil
}
