package domain

import (
	"context"
	"time"
)

// InterpMethod is the spatial interpolation an ArrayQuerier applies between
// grid points.
type InterpMethod string

const (
	InterpLinear  InterpMethod = "linear"
	InterpNearest InterpMethod = "nearest"
)

// SelectMethod is how an ArrayQuerier matches a requested time to the
// dataset's time axis.
type SelectMethod string

const SelectNearest SelectMethod = "nearest"

// ArrayQuery asks the remote array service for one variable at one point and
// time.
type ArrayQuery struct {
	DatasetURL string
	Key        string // ParameterDescriptor.DatasetKey
	Coords     Coords
	ValidTime  time.Time
	Interp     InterpMethod
	Select     SelectMethod
}

// ArrayQuerier runs point queries against a full remote dataset (the OPeNDAP
// path). Its errors are surfaced to callers unchanged.
type ArrayQuerier interface {
	Query(ctx context.Context, q ArrayQuery) ([]float64, error)
}

// RecordDecoder turns validated GRIB2 bytes into values for a variable named
// by ParameterDescriptor.DecoderKey.
type RecordDecoder interface {
	Decode(ctx context.Context, raw []byte, variable string) ([]float64, error)
}

// Upstream request stages, used as metric labels.
const (
	StageCatalog = "catalog"
	StageRecord  = "record"
)

// GetRequest is a single upstream GET. A nil Range fetches the whole resource.
// MaxBytes caps how much of the body is read.
type GetRequest struct {
	URL      string
	Range    *ByteRange
	MaxBytes int64
	Stage    string
}

// GetResponse carries the status code and body of an upstream GET.
type GetResponse struct {
	StatusCode int
	Body       []byte
}

// Getter issues upstream GETs. Transport failures are returned as errors;
// HTTP status handling is left to the caller.
type Getter interface {
	Get(ctx context.Context, req GetRequest) (GetResponse, error)
}
