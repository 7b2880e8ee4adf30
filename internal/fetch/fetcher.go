// Package fetch retrieves single GRIB2 records from GFS files using the
// catalog's byte offsets and an HTTP Range request.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/couchcryptid/openwx-service/internal/domain"
)

// Magic is the signature every GRIB record starts with.
var Magic = []byte("GRIB")

const (
	defaultMaxCatalogBytes = 4 << 20
	defaultMaxRecordBytes  = 64 << 20
)

// Fetcher runs the two sequential GETs of a selective retrieval: the catalog,
// then the record's byte range. It keeps no state between calls, so one
// Fetcher serves concurrent requests.
type Fetcher struct {
	getter          domain.Getter
	locator         domain.Locator
	registry        *domain.Registry
	logger          *slog.Logger
	strict          bool
	maxCatalogBytes int64
	maxRecordBytes  int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRegistry replaces the parameter registry used by Retrieve.
func WithRegistry(r *domain.Registry) Option {
	return func(f *Fetcher) { f.registry = r }
}

// WithStrictCatalog makes duplicate (parameter, level) catalog lines an error.
func WithStrictCatalog(strict bool) Option {
	return func(f *Fetcher) { f.strict = strict }
}

// WithLimits caps the catalog and record body sizes.
func WithLimits(maxCatalogBytes, maxRecordBytes int64) Option {
	return func(f *Fetcher) {
		f.maxCatalogBytes = maxCatalogBytes
		f.maxRecordBytes = maxRecordBytes
	}
}

// New creates a Fetcher for files located by locator.
func New(getter domain.Getter, locator domain.Locator, logger *slog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		getter:          getter,
		locator:         locator,
		registry:        domain.Parameters,
		logger:          logger,
		maxCatalogBytes: defaultMaxCatalogBytes,
		maxRecordBytes:  defaultMaxRecordBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Locator returns the locator the fetcher builds URLs with.
func (f *Fetcher) Locator() domain.Locator { return f.locator }

// Registry returns the parameter registry used by Retrieve.
func (f *Fetcher) Registry() *domain.Registry { return f.registry }

// FetchCatalog downloads the .idx catalog text for a run and forecast hour.
// An out-of-range forecast hour fails with domain.ErrInvalidRequest before
// any request is made.
func (f *Fetcher) FetchCatalog(ctx context.Context, run time.Time, forecastHour int) (string, error) {
	if err := domain.ValidateForecastHour(forecastHour); err != nil {
		return "", err
	}
	u := f.locator.CatalogURL(run, forecastHour)
	resp, err := f.getter.Get(ctx, domain.GetRequest{
		URL:      u,
		MaxBytes: f.maxCatalogBytes,
		Stage:    domain.StageCatalog,
	})
	if err != nil {
		return "", &domain.FetchError{Stage: domain.ErrCatalogFetchFailed, URL: u, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &domain.FetchError{Stage: domain.ErrCatalogFetchFailed, URL: u, StatusCode: resp.StatusCode}
	}
	return string(resp.Body), nil
}

// ResolveRange fetches and parses the catalog and returns the byte range of
// one (catalog abbreviation, level) record. It does not touch the GRIB2 file.
func (f *Fetcher) ResolveRange(ctx context.Context, run time.Time, forecastHour int, catalogKey, level string) (domain.ByteRange, error) {
	text, err := f.FetchCatalog(ctx, run, forecastHour)
	if err != nil {
		return domain.ByteRange{}, err
	}

	parse := domain.ParseCatalog
	if f.strict {
		parse = domain.ParseCatalogStrict
	}
	table, err := parse(text)
	if err != nil {
		return domain.ByteRange{}, fmt.Errorf("parse catalog %s: %w", f.locator.CatalogURL(run, forecastHour), err)
	}
	f.logger.Debug("catalog parsed", "url", f.locator.CatalogURL(run, forecastHour), "parameters", len(table))

	return table.Resolve(catalogKey, level)
}

// FetchRecord returns the validated bytes of one record. Catalog misses are
// returned as *domain.LookupError without a file request being made.
func (f *Fetcher) FetchRecord(ctx context.Context, run time.Time, forecastHour int, catalogKey, level string) ([]byte, error) {
	_, data, err := f.fetchRecord(ctx, run, forecastHour, catalogKey, level)
	return data, err
}

func (f *Fetcher) fetchRecord(ctx context.Context, run time.Time, forecastHour int, catalogKey, level string) (domain.ByteRange, []byte, error) {
	r, err := f.ResolveRange(ctx, run, forecastHour, catalogKey, level)
	if err != nil {
		return domain.ByteRange{}, nil, err
	}
	if err := ctx.Err(); err != nil {
		return domain.ByteRange{}, nil, err
	}

	u := f.locator.FileURL(run, forecastHour)
	if n, ok := r.Len(); ok && n > f.maxRecordBytes {
		return r, nil, &domain.FetchError{
			Stage: domain.ErrFileFetchFailed,
			URL:   u,
			Err:   fmt.Errorf("record %s is %d bytes, limit is %d", r, n, f.maxRecordBytes),
		}
	}

	resp, err := f.getter.Get(ctx, domain.GetRequest{
		URL:      u,
		Range:    &r,
		MaxBytes: f.maxRecordBytes,
		Stage:    domain.StageRecord,
	})
	if err != nil {
		return r, nil, &domain.FetchError{Stage: domain.ErrFileFetchFailed, URL: u, Err: err}
	}
	// A 200 means the range was ignored and the body is the whole file.
	if resp.StatusCode != http.StatusPartialContent {
		return r, nil, &domain.FetchError{Stage: domain.ErrFileFetchFailed, URL: u, StatusCode: resp.StatusCode}
	}
	if n, ok := r.Len(); ok && int64(len(resp.Body)) != n {
		return r, nil, &domain.FetchError{
			Stage:      domain.ErrFileFetchFailed,
			URL:        u,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("got %d of %d bytes for %s", len(resp.Body), n, r),
		}
	}

	if !bytes.HasPrefix(resp.Body, Magic) {
		got := resp.Body[:min(len(resp.Body), len(Magic))]
		return r, nil, &domain.SignatureError{URL: u, Range: r, Got: bytes.Clone(got)}
	}
	return r, resp.Body, nil
}

// Retrieve resolves a request's parameter through the registry, fetches the
// record and stamps it with an ID and fetch time.
func (f *Fetcher) Retrieve(ctx context.Context, req domain.RetrievalRequest) (domain.Record, error) {
	if err := req.Validate(); err != nil {
		return domain.Record{}, err
	}
	desc, ok := f.registry.Lookup(req.Parameter)
	if !ok {
		return domain.Record{}, fmt.Errorf("%w: %q", domain.ErrUnknownParameter, req.Parameter)
	}
	level := req.Level
	if level == "" {
		level = desc.Level
	}

	id := ulid.MustNew(ulid.Timestamp(domain.Now()), ulid.DefaultEntropy()).String()
	logger := f.logger.With("request_id", id, "parameter", desc.CatalogKey, "level", level)

	r, data, err := f.fetchRecord(ctx, req.Run, req.ForecastHour, desc.CatalogKey, level)
	if err != nil {
		return domain.Record{}, err
	}
	logger.Info("record fetched", "range", r.String(), "bytes", len(data))

	return domain.Record{
		ID:         id,
		Request:    req,
		CatalogKey: desc.CatalogKey,
		Level:      level,
		Range:      r,
		Data:       data,
		FetchedAt:  domain.Now(),
	}, nil
}

// Decode retrieves a record and hands its validated bytes to dec under the
// parameter's decoder key. Records that fail validation never reach dec.
func (f *Fetcher) Decode(ctx context.Context, req domain.RetrievalRequest, dec domain.RecordDecoder) ([]float64, error) {
	rec, err := f.Retrieve(ctx, req)
	if err != nil {
		return nil, err
	}
	desc, _ := f.registry.Lookup(req.Parameter)
	values, err := dec.Decode(ctx, rec.Data, desc.DecoderKey)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rec.Key(), err)
	}
	return values, nil
}
