package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the selective retrieval path. Callers match them with
// errors.Is; the structured types below carry the details.
var (
	ErrMalformedCatalogEntry  = errors.New("malformed catalog entry")
	ErrDuplicateCatalogEntry  = errors.New("duplicate catalog entry")
	ErrParameterNotInCatalog  = errors.New("parameter not in catalog")
	ErrLevelNotInCatalog      = errors.New("level not in catalog")
	ErrCatalogFetchFailed     = errors.New("catalog fetch failed")
	ErrFileFetchFailed        = errors.New("file fetch failed")
	ErrInvalidRecordSignature = errors.New("invalid record signature")
	ErrUnknownParameter       = errors.New("unknown parameter")
	ErrInvalidRequest         = errors.New("invalid retrieval request")
)

// MalformedEntryError reports a catalog line that could not be parsed.
type MalformedEntryError struct {
	Position int // 1-based position among non-empty lines
	Line     string
	Reason   string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("catalog line %d %q: %s", e.Position, e.Line, e.Reason)
}

func (e *MalformedEntryError) Unwrap() error { return ErrMalformedCatalogEntry }

// LookupError reports a (parameter, level) pair missing from an offset table.
// Err is either ErrParameterNotInCatalog or ErrLevelNotInCatalog.
type LookupError struct {
	Parameter string
	Level     string
	Err       error
}

func (e *LookupError) Error() string {
	if errors.Is(e.Err, ErrParameterNotInCatalog) {
		return fmt.Sprintf("%v: %s", e.Err, e.Parameter)
	}
	return fmt.Sprintf("%v: %s at %q", e.Err, e.Parameter, e.Level)
}

func (e *LookupError) Unwrap() error { return e.Err }

// FetchError reports a failed upstream GET. Stage is ErrCatalogFetchFailed or
// ErrFileFetchFailed; Err is the underlying cause, which may be nil when the
// failure was an unexpected status code.
type FetchError struct {
	Stage      error
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%v: %s: status %d: %v", e.Stage, e.URL, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Stage, e.URL, e.Err)
	default:
		return fmt.Sprintf("%v: %s: status %d", e.Stage, e.URL, e.StatusCode)
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Stage}
	}
	return []error{e.Stage, e.Err}
}

// SignatureError reports a ranged response that does not start with the GRIB
// magic.
type SignatureError struct {
	URL   string
	Range ByteRange
	Got   []byte
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%v: %s %s: got %q", ErrInvalidRecordSignature, e.URL, e.Range, e.Got)
}

func (e *SignatureError) Unwrap() error { return ErrInvalidRecordSignature }

// Kind is a coarse error class used for metric labels and API status codes.
type Kind string

const (
	KindUnknown          Kind = "unknown"
	KindCanceled         Kind = "canceled"
	KindInvalidRequest   Kind = "invalid_request"
	KindNotFound         Kind = "not_found"
	KindUpstream         Kind = "upstream"
	KindInvalidRecord    Kind = "invalid_record"
	KindMalformedCatalog Kind = "malformed_catalog"
)

// Classify maps an error from the retrieval path to its Kind. Cancellation is
// checked first so an aborted GET is not reported as an upstream outage.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrUnknownParameter):
		return KindInvalidRequest
	case errors.Is(err, ErrParameterNotInCatalog), errors.Is(err, ErrLevelNotInCatalog):
		return KindNotFound
	case errors.Is(err, ErrInvalidRecordSignature):
		return KindInvalidRecord
	case errors.Is(err, ErrMalformedCatalogEntry), errors.Is(err, ErrDuplicateCatalogEntry):
		return KindMalformedCatalog
	case errors.Is(err, ErrCatalogFetchFailed), errors.Is(err, ErrFileFetchFailed):
		return KindUpstream
	default:
		return KindUnknown
	}
}
