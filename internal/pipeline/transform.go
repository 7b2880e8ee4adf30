package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/openwx-service/internal/domain"
)

// Retriever fetches the record a request names. *fetch.Fetcher implements it.
type Retriever interface {
	Retrieve(ctx context.Context, req domain.RetrievalRequest) (domain.Record, error)
}

// RecordTransformer implements Transformer by decoding a JSON retrieval
// request and running a selective retrieval for it.
type RecordTransformer struct {
	retriever Retriever
	logger    *slog.Logger
}

// NewTransformer creates a RecordTransformer backed by r.
func NewTransformer(r Retriever, logger *slog.Logger) *RecordTransformer {
	return &RecordTransformer{
		retriever: r,
		logger:    logger,
	}
}

func (t *RecordTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Record, error) {
	req, err := ParseRequest(raw)
	if err != nil {
		return domain.Record{}, err
	}
	t.logger.Debug("retrieval request parsed",
		"offset", raw.Offset,
		"parameter", req.Parameter,
		"run", req.Run.UTC().Format(domain.RunLayout),
		"forecast_hour", req.ForecastHour,
	)
	return t.retriever.Retrieve(ctx, req)
}

// ParseRequest decodes the JSON value of a request-topic message.
func ParseRequest(raw domain.RawEvent) (domain.RetrievalRequest, error) {
	var req domain.RetrievalRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return domain.RetrievalRequest{}, fmt.Errorf("%w: decode message at offset %d: %v",
			domain.ErrInvalidRequest, raw.Offset, err)
	}
	return req, nil
}
