package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/corp-qr-hub/internal/config"
)

// ScanEventProducer publishes recorded scans to the scan topic.
type ScanEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewScanEventProducer ensures the scan topic exists and opens an async writer
// on it. Delivery failures surface in the completion log only.
func NewScanEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ScanEventProducer, error) {
	if cfg.ScanTopic == "" {
		return nil, fmt.Errorf("kafka scan topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for scan event producer: %w", err)
	}
	defer conn.Close()

	if err := createKafkaTopicIfNotExists(conn, cfg.ScanTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure scan topic %s exists: %w", cfg.ScanTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.ScanTopic,
		Balancer:     &kafka.Hash{}, // same entry, same partition
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to deliver scan events", "topic", cfg.ScanTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Delivered scan events", "topic", cfg.ScanTopic, "count", len(messages))
			}
		},
	}

	return &ScanEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.ScanTopic,
	}, nil
}

func (p *ScanEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal scan event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish scan event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish scan event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published scan event", "topic", p.topic, "key", key)
	return nil
}

func (p *ScanEventProducer) Close() error {
	p.logger.Info("Closing scan event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
