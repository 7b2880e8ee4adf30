package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/openwx-service/internal/domain"
)

// maxForecastPoints bounds valid times × parameters in one forecast query;
// each point is a remote array query.
const maxForecastPoints = 2000

// ForecastQuery asks for parameters at one point over an hourly window of a
// model run.
type ForecastQuery struct {
	Run        time.Time
	Start      time.Time
	End        time.Time
	Coords     domain.Coords
	Parameters []string
}

// Forecast holds the parameter values at one valid time.
type Forecast struct {
	ValidTime  time.Time          `json:"valid_time"`
	Parameters map[string]float64 `json:"parameters"`
}

// ForecastResponse is the answer to a ForecastQuery.
type ForecastResponse struct {
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	Forecasts []Forecast `json:"forecasts"`
}

// Forecaster answers point forecasts from the full OPeNDAP dataset instead of
// individual GRIB2 records.
type Forecaster struct {
	querier  domain.ArrayQuerier
	locator  domain.DatasetLocator
	registry *domain.Registry
}

// NewForecaster creates a Forecaster. A nil registry means domain.Parameters.
func NewForecaster(q domain.ArrayQuerier, locator domain.DatasetLocator, registry *domain.Registry) *Forecaster {
	if registry == nil {
		registry = domain.Parameters
	}
	return &Forecaster{querier: q, locator: locator, registry: registry}
}

// Query interpolates each parameter linearly at q.Coords for every hour from
// q.Start through q.End, selecting the nearest time on the dataset's axis.
// Querier errors are returned as is.
func (f *Forecaster) Query(ctx context.Context, q ForecastQuery) (ForecastResponse, error) {
	descs, times, err := f.validate(q)
	if err != nil {
		return ForecastResponse{}, err
	}

	datasetURL := f.locator.DatasetURL(q.Run)
	resp := ForecastResponse{
		Lat:       q.Coords.Lat,
		Lon:       q.Coords.Lon,
		Forecasts: make([]Forecast, 0, len(times)),
	}
	for _, valid := range times {
		fc := Forecast{ValidTime: valid, Parameters: make(map[string]float64, len(descs))}
		for _, d := range descs {
			values, err := f.querier.Query(ctx, domain.ArrayQuery{
				DatasetURL: datasetURL,
				Key:        d.DatasetKey,
				Coords:     q.Coords,
				ValidTime:  valid,
				Interp:     domain.InterpLinear,
				Select:     domain.SelectNearest,
			})
			if err != nil {
				return ForecastResponse{}, err
			}
			if len(values) == 0 {
				return ForecastResponse{}, fmt.Errorf("%s at %s: empty result from %s",
					d.DatasetKey, valid.Format(time.RFC3339), datasetURL)
			}
			fc.Parameters[d.ShortName] = values[0]
		}
		resp.Forecasts = append(resp.Forecasts, fc)
	}
	return resp, nil
}

func (f *Forecaster) validate(q ForecastQuery) ([]domain.ParameterDescriptor, []time.Time, error) {
	if q.Run.IsZero() || q.Start.IsZero() || q.End.IsZero() {
		return nil, nil, fmt.Errorf("%w: model run and valid time window are required", domain.ErrInvalidRequest)
	}
	if q.End.Before(q.Start) {
		return nil, nil, fmt.Errorf("%w: valid time window ends before it starts", domain.ErrInvalidRequest)
	}
	if _, err := domain.ForecastHour(q.Run, q.Start); err != nil {
		return nil, nil, err
	}
	if err := q.Coords.Validate(); err != nil {
		return nil, nil, err
	}
	if len(q.Parameters) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one parameter is required", domain.ErrInvalidRequest)
	}

	descs := make([]domain.ParameterDescriptor, 0, len(q.Parameters))
	for _, name := range q.Parameters {
		d, ok := f.registry.Lookup(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", domain.ErrUnknownParameter, name)
		}
		descs = append(descs, d)
	}

	times := domain.HourlyTimes(q.Start, q.End, 1)
	if n := len(times) * len(descs); n > maxForecastPoints {
		return nil, nil, fmt.Errorf("%w: %d points requested, limit is %d", domain.ErrInvalidRequest, n, maxForecastPoints)
	}
	return descs, times, nil
}
