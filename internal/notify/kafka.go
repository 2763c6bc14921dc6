package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaNotifier - Uyarıları Kafka topic'ine JSON olarak yayınlar.
// Tüketen taraf (websocket gateway, e-posta servisi vs.) bu modülün dışında.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *zap.SugaredLogger
}

func NewKafkaNotifier(brokers, topic string, logger *zap.SugaredLogger) *KafkaNotifier {
	addrs := strings.Split(brokers, ",")
	for i := range addrs {
		addrs[i] = strings.TrimSpace(addrs[i])
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	return &KafkaNotifier{writer: writer, logger: logger}
}

func (n *KafkaNotifier) Publish(ctx context.Context, alerts []StockAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		value, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("uyarı serileştirilemedi: %w", err)
		}
		// Aynı tenant'ın uyarıları aynı partition'a düşsün
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(a.TenantID), 10)),
			Value: value,
		})
	}

	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		n.logger.Errorw("Stok uyarıları yayınlanamadı", "count", len(alerts), "error", err)
		return err
	}

	n.logger.Infow("Stok uyarıları yayınlandı", "count", len(alerts))
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
