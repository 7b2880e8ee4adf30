package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/openwx-service/internal/domain"
	"github.com/couchcryptid/openwx-service/internal/fetch"
)

// RecordService resolves and fetches single GRIB2 records. *fetch.Fetcher
// implements it.
type RecordService interface {
	Registry() *domain.Registry
	Locator() domain.Locator
	ResolveRange(ctx context.Context, run time.Time, forecastHour int, catalogKey, level string) (domain.ByteRange, error)
	Retrieve(ctx context.Context, req domain.RetrievalRequest) (domain.Record, error)
}

// ForecastService answers point forecasts. *fetch.Forecaster implements it.
type ForecastService interface {
	Query(ctx context.Context, q fetch.ForecastQuery) (fetch.ForecastResponse, error)
}

// API serves the /api routes.
type API struct {
	records  RecordService
	forecast ForecastService
	logger   *slog.Logger
}

// NewAPI creates the API handlers. A nil forecast service makes
// /api/forecast answer 501.
func NewAPI(records RecordService, forecast ForecastService, logger *slog.Logger) *API {
	return &API{records: records, forecast: forecast, logger: logger}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/parameters", a.handleParameters)
	mux.HandleFunc("GET /api/ranges", a.handleRanges)
	mux.HandleFunc("GET /api/records", a.handleRecords)
	mux.HandleFunc("GET /api/forecast", a.handleForecast)
}

func (a *API) handleParameters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.records.Registry().All())
}

// RangeResponse describes where a record lives without fetching it.
type RangeResponse struct {
	Parameter    string           `json:"parameter"`
	CatalogKey   string           `json:"catalog_key"`
	Level        string           `json:"level"`
	Run          time.Time        `json:"run"`
	ForecastHour int              `json:"forecast_hour"`
	FileURL      string           `json:"file_url"`
	CatalogURL   string           `json:"catalog_url"`
	Range        domain.ByteRange `json:"range"`
	RangeHeader  string           `json:"range_header"`
}

func (a *API) handleRanges(w http.ResponseWriter, r *http.Request) {
	req, err := parseRetrieval(r.URL.Query())
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	desc, ok := a.records.Registry().Lookup(req.Parameter)
	if !ok {
		a.writeError(w, r, fmt.Errorf("%w: %q", domain.ErrUnknownParameter, req.Parameter))
		return
	}
	level := req.Level
	if level == "" {
		level = desc.Level
	}

	br, err := a.records.ResolveRange(r.Context(), req.Run, req.ForecastHour, desc.CatalogKey, level)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	loc := a.records.Locator()
	writeJSON(w, http.StatusOK, RangeResponse{
		Parameter:    desc.ShortName,
		CatalogKey:   desc.CatalogKey,
		Level:        level,
		Run:          req.Run.UTC(),
		ForecastHour: req.ForecastHour,
		FileURL:      loc.FileURL(req.Run, req.ForecastHour),
		CatalogURL:   loc.CatalogURL(req.Run, req.ForecastHour),
		Range:        br,
		RangeHeader:  br.Header(),
	})
}

func (a *API) handleRecords(w http.ResponseWriter, r *http.Request) {
	req, err := parseRetrieval(r.URL.Query())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rec, err := a.records.Retrieve(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(rec.Data)))
	w.Header().Set("X-Byte-Range", rec.Range.Header())
	w.Header().Set("X-Request-Id", rec.ID)
	w.Header().Set("X-Record-Key", rec.Key())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.Data)
}

func (a *API) handleForecast(w http.ResponseWriter, r *http.Request) {
	if a.forecast == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{
			Error: "forecast queries need an array query backend, none is configured",
			Kind:  "not_implemented",
		})
		return
	}

	q, err := parseForecast(r.URL.Query())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	resp, err := a.forecast.Query(r.Context(), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUpstream:
		return http.StatusServiceUnavailable
	case domain.KindMalformedCatalog, domain.KindInvalidRecord:
		return http.StatusBadGateway
	case domain.KindCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.Classify(err)
	status := statusFor(kind)

	level := slog.LevelWarn
	switch {
	case kind == domain.KindInvalidRequest, kind == domain.KindNotFound:
		level = slog.LevelInfo
	case kind == domain.KindInvalidRecord, status == http.StatusInternalServerError:
		level = slog.LevelError
	}
	a.logger.Log(r.Context(), level, "api request failed",
		"path", r.URL.Path, "status", status, "kind", kind, "error", err)

	writeJSON(w, status, errorBody{Error: err.Error(), Kind: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func parseTime(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, name)
	}
	t, err := domain.ParseTime(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// parseRetrieval reads run, forecast_hour or valid_time, parameter and level.
func parseRetrieval(v url.Values) (domain.RetrievalRequest, error) {
	run, err := parseTime("run", v.Get("run"))
	if err != nil {
		return domain.RetrievalRequest{}, err
	}
	req := domain.RetrievalRequest{
		Run:       run,
		Parameter: v.Get("parameter"),
		Level:     v.Get("level"),
	}

	fh, valid := v.Get("forecast_hour"), v.Get("valid_time")
	switch {
	case fh != "" && valid != "":
		return domain.RetrievalRequest{}, fmt.Errorf("%w: give forecast_hour or valid_time, not both", domain.ErrInvalidRequest)
	case fh != "":
		n, err := strconv.Atoi(fh)
		if err != nil {
			return domain.RetrievalRequest{}, fmt.Errorf("%w: forecast_hour %q is not an integer", domain.ErrInvalidRequest, fh)
		}
		req.ForecastHour = n
	case valid != "":
		t, err := parseTime("valid_time", valid)
		if err != nil {
			return domain.RetrievalRequest{}, err
		}
		if req.ForecastHour, err = domain.ForecastHour(run, t); err != nil {
			return domain.RetrievalRequest{}, err
		}
	}
	return req, nil
}

func parseForecast(v url.Values) (fetch.ForecastQuery, error) {
	var q fetch.ForecastQuery
	var err error
	if q.Run, err = parseTime("model_run", v.Get("model_run")); err != nil {
		return q, err
	}
	if q.Start, err = parseTime("valid_time_start", v.Get("valid_time_start")); err != nil {
		return q, err
	}
	if q.End, err = parseTime("valid_time_end", v.Get("valid_time_end")); err != nil {
		return q, err
	}
	if q.Coords.Lat, err = parseFloat("lat", v.Get("lat")); err != nil {
		return q, err
	}
	if q.Coords.Lon, err = parseFloat("lon", v.Get("lon")); err != nil {
		return q, err
	}
	// Accept both ?parameters=a,b and ?parameters=a&parameters=b.
	for _, p := range v["parameters"] {
		for name := range strings.SplitSeq(p, ",") {
			if name = strings.TrimSpace(name); name != "" {
				q.Parameters = append(q.Parameters, name)
			}
		}
	}
	return q, nil
}

func parseFloat(name, v string) (float64, error) {
	if v == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, fmt.Errorf("%w: %s %q: %v", domain.ErrInvalidRequest, name, v, err)
	}
	return f, nil
}
