package domain

import "fmt"

// ByteRange is an inclusive span of a remote file. The last record of a file
// has no known end, so its range is open; an open range has no stop value at
// all rather than a sentinel.
type ByteRange struct {
	start   int64
	stop    int64
	bounded bool
}

// NewByteRange returns the closed range [start, stop].
func NewByteRange(start, stop int64) ByteRange {
	return ByteRange{start: start, stop: stop, bounded: true}
}

// OpenByteRange returns the range starting at start and running to the end of
// the file.
func OpenByteRange(start int64) ByteRange {
	return ByteRange{start: start}
}

func (r ByteRange) Start() int64 { return r.start }

// Stop returns the inclusive last byte and true, or false if the range is open.
func (r ByteRange) Stop() (int64, bool) {
	if !r.bounded {
		return 0, false
	}
	return r.stop, true
}

func (r ByteRange) Bounded() bool { return r.bounded }

// Len returns the number of bytes covered by a closed range.
func (r ByteRange) Len() (int64, bool) {
	if !r.bounded {
		return 0, false
	}
	return r.stop - r.start + 1, true
}

// Header renders the value of an HTTP Range request header.
func (r ByteRange) Header() string {
	if !r.bounded {
		return fmt.Sprintf("bytes=%d-", r.start)
	}
	return fmt.Sprintf("bytes=%d-%d", r.start, r.stop)
}

func (r ByteRange) String() string {
	if !r.bounded {
		return fmt.Sprintf("[%d,)", r.start)
	}
	return fmt.Sprintf("[%d,%d]", r.start, r.stop)
}

// MarshalJSON encodes the range as {"start":N,"stop":M} with a null stop for an
// open range.
func (r ByteRange) MarshalJSON() ([]byte, error) {
	if !r.bounded {
		return []byte(fmt.Sprintf(`{"start":%d,"stop":null}`, r.start)), nil
	}
	return []byte(fmt.Sprintf(`{"start":%d,"stop":%d}`, r.start, r.stop)), nil
}

// Equal reports whether two ranges cover the same span.
func (r ByteRange) Equal(o ByteRange) bool {
	return r == o
}
