package events

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher – produces transition events keyed by request code so one request stays on one partition
type KafkaPublisher struct {
	client  *kgo.Client
	timeout time.Duration
	log     *logrus.Entry
}

// NewKafkaPublisher – timeout bounds every Publish, so an unreachable cluster delays a transition
// by at most that long
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration, log *logrus.Entry) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, timeout: timeout, log: log}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, t Transition) error {
	value, err := t.Encode()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	record := &kgo.Record{Key: []byte(t.Code), Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s transition: %w", t.Code, err)
	}
	p.log.WithFields(logrus.Fields{"code": t.Code, "to": t.To}).Debug("transition published")
	return nil
}

func (p *KafkaPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
