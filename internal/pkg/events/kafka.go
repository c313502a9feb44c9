package events

import (
	"context"
	"encoding/json"
	"storefront/internal/pkg/config"

	"github.com/segmentio/kafka-go"
)

// MessageWriter kafka.Writer 的最小接口，便于测试替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink 把状态变更写入 order.status 主题，key 为订单 ID 以保证同一订单有序
type KafkaSink struct {
	writer MessageWriter
	topic  string
}

func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func NewKafkaSink(writer MessageWriter, topic string) *KafkaSink {
	return &KafkaSink{writer: writer, topic: topic}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: s.topic,
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order." + event.Status)},
			{Key: "source", Value: []byte(event.Source)},
		},
		Time: event.OccurredAt,
	}
	return s.writer.WriteMessages(ctx, msg)
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
