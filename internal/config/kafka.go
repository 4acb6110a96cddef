package config

import (
	"strings"

	"github.com/segmentio/kafka-go"
)

func (c *Config) kafkaBrokerURLs() []string {
	brokers := c.KafkaBrokers
	if brokers == "" {
		brokers = "localhost:9092"
	}
	return strings.Split(brokers, ",")
}

// NewKafkaWriter builds a writer for the given topic against the configured
// brokers.
func (c *Config) NewKafkaWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.kafkaBrokerURLs()...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}
