package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/viralforge/trender/internal/domain"
)

// KafkaConsumer reads the trade topics only. Each message is tagged with the
// event type its topic carries so the handler can reject a payload that
// arrived on the wrong topic.
type KafkaConsumer struct {
	reader       *kafka.Reader
	eventByTopic map[string]string
}

func NewKafkaConsumer(brokers []string, groupID string, topicByEvent map[string]string) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("kafka consumer requires group id")
	}
	eventByTopic, err := tradeTopics(topicByEvent)
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(eventByTopic))
	for topic := range eventByTopic {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	return &KafkaConsumer{reader: reader, eventByTopic: eventByTopic}, nil
}

// tradeTopics inverts the publisher's topic map for the trade events. Two
// trade events may not share a topic.
func tradeTopics(topicByEvent map[string]string) (map[string]string, error) {
	out := make(map[string]string)
	for _, eventType := range []string{domain.EventHypePurchased, domain.EventHypeSold, domain.EventHypeReleased} {
		topic := topicFor(topicByEvent, eventType)
		if other, ok := out[topic]; ok {
			return nil, fmt.Errorf("kafka topic %s carries both %s and %s", topic, other, eventType)
		}
		out[topic] = eventType
	}
	return out, nil
}

func (c *KafkaConsumer) Poll(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	out := make([]Message, 0, max)
	for len(out) < max {
		readCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		msg, err := c.reader.ReadMessage(readCtx)
		cancel()
		switch {
		case err == nil:
		case errors.Is(err, context.DeadlineExceeded):
			return out, nil
		case errors.Is(err, context.Canceled):
			return out, ctx.Err()
		default:
			return out, err
		}
		out = append(out, Message{
			Topic:     msg.Topic,
			EventType: c.eventByTopic[msg.Topic],
			Key:       string(msg.Key),
			Payload:   msg.Value,
		})
	}
	return out, nil
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
