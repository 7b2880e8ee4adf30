package domain

import (
	"context"
	"fmt"
	"time"
)

// maxForecastHour is the largest forecast hour the three-digit FFF file
// suffix can express.
const maxForecastHour = 999

// Coords is a WGS-84 point.
type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate ranges. GFS longitudes run 0..360 but -180..180
// is accepted as well.
func (c Coords) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidRequest, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 360 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidRequest, c.Lon)
	}
	return nil
}

// RetrievalRequest asks for one parameter at one level of one forecast hour of
// a model run. Level is optional and defaults to the parameter's registry
// level.
type RetrievalRequest struct {
	Run          time.Time `json:"run"`
	ForecastHour int       `json:"forecast_hour"`
	Parameter    string    `json:"parameter"`
	Level        string    `json:"level,omitempty"`
	Coords       *Coords   `json:"coords,omitempty"`
}

// ValidateForecastHour rejects hours that the three-digit file suffix cannot
// carry.
func ValidateForecastHour(fh int) error {
	if fh < 0 || fh > maxForecastHour {
		return fmt.Errorf("%w: forecast hour %d out of range 0..%d", ErrInvalidRequest, fh, maxForecastHour)
	}
	return nil
}

// Validate checks the request fields that do not need the registry.
func (r RetrievalRequest) Validate() error {
	if r.Run.IsZero() {
		return fmt.Errorf("%w: model run is required", ErrInvalidRequest)
	}
	if r.Run.UTC().Truncate(time.Hour) != r.Run.UTC() {
		return fmt.Errorf("%w: model run %s is not on the hour", ErrInvalidRequest, r.Run.Format(time.RFC3339))
	}
	if err := ValidateForecastHour(r.ForecastHour); err != nil {
		return err
	}
	if r.Parameter == "" {
		return fmt.Errorf("%w: parameter is required", ErrInvalidRequest)
	}
	if r.Coords != nil {
		return r.Coords.Validate()
	}
	return nil
}

// RecordKey identifies the record a request resolves to, e.g.
// "2022111200/f001/TMP/2 m above ground".
func RecordKey(run time.Time, forecastHour int, catalogKey, level string) string {
	return fmt.Sprintf("%s/f%03d/%s/%s", run.UTC().Format(RunLayout), forecastHour, catalogKey, level)
}

// Record is a validated GRIB2 record fetched for a request.
type Record struct {
	ID         string           `json:"id"`
	Request    RetrievalRequest `json:"request"`
	CatalogKey string           `json:"catalog_key"`
	Level      string           `json:"level"`
	Range      ByteRange        `json:"range"`
	Data       []byte           `json:"-"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

// Key returns the record's RecordKey.
func (r Record) Key() string {
	return RecordKey(r.Request.Run, r.Request.ForecastHour, r.CatalogKey, r.Level)
}

// RawEvent is an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// RunLayout is the compact YYYYMMDDHH form used in catalog run tags and
// record keys.
const RunLayout = "2006010215"

// ParseTime reads a run or valid time given either as RFC 3339 or in
// RunLayout. The result is in UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(RunLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: time %q is not RFC 3339 or YYYYMMDDHH", ErrInvalidRequest, s)
}

// ForecastHour converts a valid time into the forecast hour of a run. The
// difference must be a whole, non-negative number of hours.
func ForecastHour(run, valid time.Time) (int, error) {
	d := valid.Sub(run)
	if d < 0 {
		return 0, fmt.Errorf("%w: valid time %s precedes model run %s",
			ErrInvalidRequest, valid.Format(time.RFC3339), run.Format(time.RFC3339))
	}
	if d%time.Hour != 0 {
		return 0, fmt.Errorf("%w: valid time %s is not a whole number of hours after the run",
			ErrInvalidRequest, valid.Format(time.RFC3339))
	}
	return int(d / time.Hour), nil
}

// HourlyTimes returns the times from start through end, inclusive, every
// interval hours.
func HourlyTimes(start, end time.Time, interval int) []time.Time {
	if interval <= 0 {
		interval = 1
	}
	var times []time.Time
	for t := start; !t.After(end); t = t.Add(time.Duration(interval) * time.Hour) {
		times = append(times, t)
	}
	return times
}
