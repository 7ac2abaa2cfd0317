package events

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

const DefaultTopic = "storefront.orders"

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logrus.Logger
}

// NewKafkaPublisher dials the brokers with a synchronous, all-acks producer.
func NewKafkaPublisher(brokers []string, topic string, logger *logrus.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *logrus.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

// Publish sends e keyed by order id, so events for one order stay on one partition.
func (p *KafkaPublisher) Publish(_ context.Context, e OrderEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(e.OrderID, 10)),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(e.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     p.topic,
		"partition": partition,
		"offset":    offset,
		"order_id":  e.OrderID,
		"type":      e.Type,
	}).Info("Event published to Kafka")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
