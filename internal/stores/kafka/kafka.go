package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const TopicOrderPaid = `order-service.order-paid`

// OrderPaidEvent is produced once per line item when a payment is captured,
// so downstream consumers (inventory, analytics) see item-level facts.
type OrderPaidEvent struct {
	OrderId    string    `json:"order_id"`
	MenuItemId string    `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

type Conf struct {
	client *kgo.Client
}

func NewConf(brokers []string) (*Conf, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

// ProduceMessage sends one record synchronously. A nil Conf is a no-op so the
// service can run without brokers in dev.
func (c *Conf) ProduceMessage(topic string, key []byte, value []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("producing to %s: %w", topic, err)
	}
	return nil
}

func (c *Conf) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
	}
}
