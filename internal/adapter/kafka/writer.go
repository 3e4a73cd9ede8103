package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// SinkName labels this exporter in logs and metrics.
const SinkName = "kafka"

// defaultChunkSize bounds the number of messages per WriteMessages call.
const defaultChunkSize = 500

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes the observations of a dataset to a Kafka topic, one
// message per observation. It implements pipeline.Exporter.
type Writer struct {
	writer    messageWriter
	chunkSize int
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured export topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaExportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, chunkSize: defaultChunkSize, logger: logger}
}

func (w *Writer) Name() string { return SinkName }

// Export publishes every observation of ds. Messages are keyed by
// observation key so one country and region always lands on one partition.
func (w *Writer) Export(ctx context.Context, ds *domain.Dataset) error {
	if ds.Empty() {
		return nil
	}
	msgs := make([]kafkago.Message, len(ds.Observations))
	for i := range ds.Observations {
		msg, err := serializeToMessage(ds.Observations[i], ds.Report.RunID, ds.ProcessedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	for start := 0; start < len(msgs); start += w.chunkSize {
		end := min(start+w.chunkSize, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("write observations %d-%d: %w", start, end, err)
		}
	}
	w.logger.Debug("observations published", "messages", len(msgs), "run_id", ds.Report.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an observation into a Kafka message.
func serializeToMessage(o domain.Observation, runID string, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(o.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "date", Value: []byte(o.Date.Format(domain.DateLayout))},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}
