package bus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes sample events to a Kafka topic keyed by device
// serial number, so all events of one plug land on one partition.
type KafkaPublisher struct {
	w   *kafka.Writer
	log *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		log: log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("marshal failed", "err", err)
		return err
	}
	err = p.w.WriteMessages(ctx, kafka.Message{Key: []byte(ev.DeviceSN), Value: b, Time: ev.ProducedAt})
	if err != nil {
		p.log.Error("kafka write failed", "err", err, "deviceSn", ev.DeviceSN)
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
