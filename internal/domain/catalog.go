package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// catalogFields is the fixed field count of a catalog line. The description
// is the last field and may itself contain colons.
const catalogFields = 6

// CatalogEntry is one line of a GRIB2 .idx catalog:
//
//	{sequence}:{start}:d={YYYYMMDDHH}:{parameter}:{level}:{description}:
type CatalogEntry struct {
	Position    int    // 1-based source line number; blank lines count
	Sequence    string // record number as written, e.g. "12" or "12.1"
	Start       int64  // byte offset of the record within the file
	RunTag      string // "d=2022111200"
	Parameter   string // catalog abbreviation, e.g. "TMP"
	Level       string // e.g. "2 m above ground"
	Description string // e.g. "1 hour fcst"

	line string // source text, without the line feed
}

// RunTime parses the entry's run tag into a UTC time.
func (e CatalogEntry) RunTime() (time.Time, error) {
	t, err := time.Parse(RunLayout, strings.TrimPrefix(e.RunTag, "d="))
	if err != nil {
		return time.Time{}, fmt.Errorf("run tag %q: %w", e.RunTag, err)
	}
	return t, nil
}

// OffsetTable maps parameter → level → byte range.
type OffsetTable map[string]map[string]ByteRange

// Resolve looks up the byte range for a parameter at a level.
func (t OffsetTable) Resolve(parameter, level string) (ByteRange, error) {
	levels, ok := t[parameter]
	if !ok {
		return ByteRange{}, &LookupError{Parameter: parameter, Level: level, Err: ErrParameterNotInCatalog}
	}
	r, ok := levels[level]
	if !ok {
		return ByteRange{}, &LookupError{Parameter: parameter, Level: level, Err: ErrLevelNotInCatalog}
	}
	return r, nil
}

// Levels returns the sorted level names recorded for a parameter.
func (t OffsetTable) Levels(parameter string) []string {
	levels := make([]string, 0, len(t[parameter]))
	for level := range t[parameter] {
		levels = append(levels, level)
	}
	slices.Sort(levels)
	return levels
}

// Resolve is the free-function form of OffsetTable.Resolve.
func Resolve(table OffsetTable, parameter, level string) (ByteRange, error) {
	return table.Resolve(parameter, level)
}

// ParseEntries splits catalog text into entries in source order. Empty lines,
// including a trailing one, are skipped but still counted in Position.
func ParseEntries(text string) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := parseEntry(i+1, line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(position int, line string) (CatalogEntry, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(line, "\r"), ":")
	fields := strings.SplitN(trimmed, ":", catalogFields)
	if len(fields) != catalogFields {
		return CatalogEntry{}, &MalformedEntryError{
			Position: position,
			Line:     line,
			Reason:   fmt.Sprintf("expected %d fields, got %d", catalogFields, len(fields)),
		}
	}

	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || start < 0 {
		return CatalogEntry{}, &MalformedEntryError{
			Position: position,
			Line:     line,
			Reason:   fmt.Sprintf("invalid start offset %q", fields[1]),
		}
	}

	return CatalogEntry{
		Position:    position,
		Sequence:    fields[0],
		Start:       start,
		RunTag:      fields[2],
		Parameter:   fields[3],
		Level:       fields[4],
		Description: fields[5],
		line:        line,
	}, nil
}

// ParseCatalog builds the offset table for a catalog. Each record stops one
// byte before the next record starts; the last record in the file is open.
// When a (parameter, level) pair repeats, the first occurrence in the file
// wins.
func ParseCatalog(text string) (OffsetTable, error) {
	return parseCatalog(text, false)
}

// ParseCatalogStrict is ParseCatalog but fails with ErrDuplicateCatalogEntry
// when a (parameter, level) pair repeats.
func ParseCatalogStrict(text string) (OffsetTable, error) {
	return parseCatalog(text, true)
}

func parseCatalog(text string, strict bool) (OffsetTable, error) {
	entries, err := ParseEntries(text)
	if err != nil {
		return nil, err
	}

	acc := catalogFold{table: OffsetTable{}}
	for _, entry := range slices.Backward(entries) {
		if acc, err = acc.step(entry, strict); err != nil {
			return nil, err
		}
	}
	return acc.table, nil
}

// catalogFold is the accumulator of the reverse walk over catalog entries.
// next is the range of the record that follows, in file order, the entry
// being folded.
type catalogFold struct {
	table   OffsetTable
	next    ByteRange
	hasNext bool
}

func (f catalogFold) step(e CatalogEntry, strict bool) (catalogFold, error) {
	r := OpenByteRange(e.Start)
	if f.hasNext {
		nextStart := f.next.Start()
		switch {
		case e.Start > nextStart:
			return f, &MalformedEntryError{
				Position: e.Position,
				Line:     e.line,
				Reason:   fmt.Sprintf("offset decreases: next record starts at %d", nextStart),
			}
		case e.Start == nextStart:
			// Sub-records of one message ("12.1", "12.2") share an offset
			// and therefore the whole message's span.
			r = f.next
		default:
			r = NewByteRange(e.Start, nextStart-1)
		}
	}

	levels, ok := f.table[e.Parameter]
	if !ok {
		levels = map[string]ByteRange{}
		f.table[e.Parameter] = levels
	}
	if _, dup := levels[e.Level]; dup && strict {
		return f, fmt.Errorf("%w: %s at %q (line %d)", ErrDuplicateCatalogEntry, e.Parameter, e.Level, e.Position)
	}
	levels[e.Level] = r

	f.next = r
	f.hasNext = true
	return f, nil
}
