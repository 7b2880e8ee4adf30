package kafka

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/openwx-service/internal/config"
	"github.com/couchcryptid/openwx-service/internal/domain"
)

// Record message header keys.
const (
	HeaderRequestID    = "request_id"
	HeaderParameter    = "parameter"
	HeaderLevel        = "level"
	HeaderRun          = "run"
	HeaderForecastHour = "forecast_hour"
	HeaderByteRange    = "byte_range"
	HeaderFetchedAt    = "fetched_at"
)

// Writer produces fetched records to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchBytes:   cfg.MaxRecordBytes + 1<<20,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes records in a single WriteMessages call. Messages are
// keyed by record key, so a re-fetched record lands on the partition of its
// earlier copy.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msgs[i] = recordToMessage(records[i])
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// recordToMessage carries the raw GRIB2 bytes as the value and the record
// metadata as headers.
func recordToMessage(rec domain.Record) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(rec.Key()),
		Value: rec.Data,
		Headers: []kafkago.Header{
			{Key: HeaderRequestID, Value: []byte(rec.ID)},
			{Key: HeaderParameter, Value: []byte(rec.Request.Parameter)},
			{Key: HeaderLevel, Value: []byte(rec.Level)},
			{Key: HeaderRun, Value: []byte(rec.Request.Run.UTC().Format(time.RFC3339))},
			{Key: HeaderForecastHour, Value: []byte(strconv.Itoa(rec.Request.ForecastHour))},
			{Key: HeaderByteRange, Value: []byte(rec.Range.Header())},
			{Key: HeaderFetchedAt, Value: []byte(rec.FetchedAt.Format(time.RFC3339))},
		},
	}
}
