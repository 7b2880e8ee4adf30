package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `1:0:d=2022111200:PRMSL:mean sea level:1 hour fcst:
2:990417:d=2022111200:CLWMR:1 hybrid level:1 hour fcst:
3:1068774:d=2022111200:ICMR:1 hybrid level:1 hour fcst:
4:1392291:d=2022111200:RWMR:1 hybrid level:1 hour fcst:
5:1637623:d=2022111200:SNMR:1 hybrid level:1 hour fcst:
6:1737623:d=2022111200:ICMR:surface:1 hour fcst:
`

func TestParseCatalog_SampleTable(t *testing.T) {
	table, err := ParseCatalog(sampleCatalog)
	require.NoError(t, err)

	want := OffsetTable{
		"PRMSL": {"mean sea level": NewByteRange(0, 990416)},
		"CLWMR": {"1 hybrid level": NewByteRange(990417, 1068773)},
		"ICMR": {
			"1 hybrid level": NewByteRange(1068774, 1392290),
			"surface":        OpenByteRange(1737623),
		},
		"RWMR": {"1 hybrid level": NewByteRange(1392291, 1637622)},
		"SNMR": {"1 hybrid level": NewByteRange(1637623, 1737622)},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Fatalf("offset table mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCatalog_Idempotent(t *testing.T) {
	first, err := ParseCatalog(sampleCatalog)
	require.NoError(t, err)
	second, err := ParseCatalog(sampleCatalog)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
}

func TestParseCatalog_OrderingProperty(t *testing.T) {
	catalogs := map[string]string{
		"sample":             sampleCatalog,
		"single line":        "1:0:d=2022111200:TMP:2 m above ground:anl:\n",
		"no trailing":        "1:0:d=2022111200:TMP:surface:anl:\n2:512:d=2022111200:RH:surface:anl:",
		"windows eols":       "1:0:d=2022111200:TMP:surface:anl:\r\n2:512:d=2022111200:RH:surface:anl:\r\n",
		"shared last offset": "1:0:d=2022111200:TMP:surface:anl:\n2:100:d=2022111200:UGRD:10 m above ground:anl:\n2.2:100:d=2022111200:VGRD:10 m above ground:anl:\n",
	}

	for name, text := range catalogs {
		t.Run(name, func(t *testing.T) {
			entries, err := ParseEntries(text)
			require.NoError(t, err)
			table, err := ParseCatalog(text)
			require.NoError(t, err)

			last := entries[len(entries)-1]
			wantOpen := 0
			for _, e := range entries {
				if e.Start == last.Start {
					wantOpen++
				}
			}

			open := 0
			for param, levels := range table {
				for level, r := range levels {
					stop, bounded := r.Stop()
					if !bounded {
						open++
						assert.Equal(t, last.Start, r.Start(), "%s/%s is open but not in the last message", param, level)
						continue
					}
					assert.LessOrEqual(t, r.Start(), stop, "%s/%s", param, level)
				}
			}
			assert.Equal(t, wantOpen, open, "only sub-records of the last message are open-ended")
		})
	}
}

func TestParseCatalog_EmptyInput(t *testing.T) {
	table, err := ParseCatalog("\n\n")
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestParseCatalog_DescriptionWithColons(t *testing.T) {
	text := "1:0:d=2022111200:APCP:surface:0-1 hour acc fcst:ens=1:\n2:100:d=2022111200:TMP:surface:anl:\n"

	entries, err := ParseEntries(text)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "0-1 hour acc fcst:ens=1", entries[0].Description)

	table, err := ParseCatalog(text)
	require.NoError(t, err)
	r, err := table.Resolve("APCP", "surface")
	require.NoError(t, err)
	assert.Equal(t, NewByteRange(0, 99), r)
}

func TestParseCatalog_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		position int
	}{
		{"too few fields", "1:0:d=2022111200:PRMSL:mean sea level:\n", 1},
		{"non-integer start", "1:0:d=2022111200:TMP:surface:anl:\n2:abc:d=2022111200:RH:surface:anl:\n", 2},
		{"negative start", "1:-5:d=2022111200:TMP:surface:anl:\n", 1},
		{"offset decreases", "1:500:d=2022111200:TMP:surface:anl:\n2:100:d=2022111200:RH:surface:anl:\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog(tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedCatalogEntry)

			var malformed *MalformedEntryError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.position, malformed.Position)
			assert.NotEmpty(t, malformed.Line)
		})
	}
}

func TestParseCatalog_PositionsCountBlankLines(t *testing.T) {
	_, err := ParseCatalog("1:0:d=2022111200:TMP:surface:anl:\n\n\n2:x:d=2022111200:RH:surface:anl:\n")

	var malformed *MalformedEntryError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 4, malformed.Position, "source line number")
	assert.Equal(t, "2:x:d=2022111200:RH:surface:anl:", malformed.Line)

	entries, err := ParseEntries("\n1:0:d=2022111200:TMP:surface:anl:\n\n2:100:d=2022111200:RH:surface:anl:\n")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Position)
	assert.Equal(t, 4, entries[1].Position)
}

func TestParseCatalog_OffsetDecreaseReportsSourceLine(t *testing.T) {
	text := "1:500:d=2022111200:A:x:anl:\r\n2:100:d=2022111200:B:x:anl:\r\n"

	_, err := ParseCatalog(text)
	var malformed *MalformedEntryError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 1, malformed.Position)
	assert.Equal(t, "1:500:d=2022111200:A:x:anl:\r", malformed.Line)
}

func TestParseCatalog_SharedOffsetAtEndOfFile(t *testing.T) {
	// The last message carries two sub-records, so both are open-ended.
	text := "1:0:d=2022111200:TMP:2 m above ground:anl:\n" +
		"2:100:d=2022111200:UGRD:10 m above ground:anl:\n" +
		"2.2:100:d=2022111200:VGRD:10 m above ground:anl:\n"

	table, err := ParseCatalog(text)
	require.NoError(t, err)

	want := OffsetTable{
		"TMP":  {"2 m above ground": NewByteRange(0, 99)},
		"UGRD": {"10 m above ground": OpenByteRange(100)},
		"VGRD": {"10 m above ground": OpenByteRange(100)},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Fatalf("offset table mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCatalog_Duplicates(t *testing.T) {
	text := `1:0:d=2022111200:APCP:surface:0-1 hour acc fcst:
2:100:d=2022111200:TMP:surface:1 hour fcst:
3:250:d=2022111200:APCP:surface:0-6 hour acc fcst:
`

	t.Run("first occurrence wins", func(t *testing.T) {
		table, err := ParseCatalog(text)
		require.NoError(t, err)
		r, err := table.Resolve("APCP", "surface")
		require.NoError(t, err)
		assert.Equal(t, NewByteRange(0, 99), r)
	})

	t.Run("strict rejects", func(t *testing.T) {
		_, err := ParseCatalogStrict(text)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateCatalogEntry)
		assert.Contains(t, err.Error(), "APCP")
	})
}

func TestParseCatalog_SharedOffsetSubRecords(t *testing.T) {
	text := `1:0:d=2022111200:TMP:surface:anl:
2.1:100:d=2022111200:UGRD:10 m above ground:anl:
2.2:100:d=2022111200:VGRD:10 m above ground:anl:
3:400:d=2022111200:RH:surface:anl:
`
	table, err := ParseCatalog(text)
	require.NoError(t, err)

	u, err := table.Resolve("UGRD", "10 m above ground")
	require.NoError(t, err)
	v, err := table.Resolve("VGRD", "10 m above ground")
	require.NoError(t, err)
	assert.Equal(t, NewByteRange(100, 399), u)
	assert.Equal(t, u, v)
}

func TestResolve(t *testing.T) {
	table, err := ParseCatalog(sampleCatalog)
	require.NoError(t, err)

	tests := []struct {
		name      string
		parameter string
		level     string
		want      ByteRange
		wantErr   error
	}{
		{"first record", "PRMSL", "mean sea level", NewByteRange(0, 990416), nil},
		{"middle record", "CLWMR", "1 hybrid level", NewByteRange(990417, 1068773), nil},
		{"last record is open", "ICMR", "surface", OpenByteRange(1737623), nil},
		{"unknown parameter", "BOOP", "surface", ByteRange{}, ErrParameterNotInCatalog},
		{"unknown level", "PRMSL", "surface", ByteRange{}, ErrLevelNotInCatalog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(table, tt.parameter, tt.level)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)

				var lookup *LookupError
				require.True(t, errors.As(err, &lookup))
				assert.Equal(t, tt.parameter, lookup.Parameter)
				assert.Equal(t, tt.level, lookup.Level)
				assert.Equal(t, KindNotFound, Classify(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffsetTable_Levels(t *testing.T) {
	table, err := ParseCatalog(sampleCatalog)
	require.NoError(t, err)

	assert.Equal(t, []string{"1 hybrid level", "surface"}, table.Levels("ICMR"))
	assert.Empty(t, table.Levels("BOOP"))
}

func TestCatalogEntry_RunTime(t *testing.T) {
	entries, err := ParseEntries(sampleCatalog)
	require.NoError(t, err)

	run, err := entries[0].RunTime()
	require.NoError(t, err)
	assert.Equal(t, "2022-11-12T00:00:00Z", run.Format("2006-01-02T15:04:05Z07:00"))

	_, err = CatalogEntry{RunTag: "d=bogus"}.RunTime()
	assert.Error(t, err)
}
