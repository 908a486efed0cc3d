package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// KafkaPublisher sends events to a Kafka topic keyed by the record key,
// so every change of one key lands in the same partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) (*KafkaPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("kafka producer is nil")
	}

	if topic == "" {
		return nil, fmt.Errorf("kafka topic is empty")
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
	}, nil
}

// Publish implements Publisher.
func (k *KafkaPublisher) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event error: %w", err)
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(event.Key),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("send message error: %w", err)
	}

	return nil
}

var _ Publisher = (*KafkaPublisher)(nil)
