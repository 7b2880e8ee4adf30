package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters_Lookup(t *testing.T) {
	d, ok := Parameters.Lookup("temperature")
	require.True(t, ok)
	assert.Equal(t, "tmp2m", d.DatasetKey)
	assert.Equal(t, "TMP", d.CatalogKey)
	assert.Equal(t, "t2m", d.DecoderKey)
	assert.Equal(t, "K", d.Unit)
	assert.Equal(t, "2 m above ground", d.Level)

	d, ok = Parameters.Lookup("wind_gust_speed")
	require.True(t, ok)
	assert.Equal(t, "gustsfc", d.DatasetKey)
	assert.Equal(t, "GUST", d.CatalogKey)

	_, ok = Parameters.Lookup("BOOP")
	assert.False(t, ok)
}

func TestParameters_Enumeration(t *testing.T) {
	names := Parameters.ShortNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "relative_humidity")

	all := Parameters.All()
	require.Len(t, all, len(names))
	for i, d := range all {
		assert.Equal(t, names[i], d.ShortName)
	}

	// Callers get a copy.
	all[0].CatalogKey = "MUTATED"
	again := Parameters.All()
	assert.NotEqual(t, "MUTATED", again[0].CatalogKey)
}

func TestParameters_ShortNamesInjective(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Parameters.All() {
		assert.False(t, seen[d.ShortName], "duplicate %s", d.ShortName)
		seen[d.ShortName] = true
		assert.NotEmpty(t, d.CatalogKey)
		assert.NotEmpty(t, d.Level)
	}
}

func TestParameters_ConcurrentReads(t *testing.T) {
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range Parameters.ShortNames() {
				_, ok := Parameters.Lookup(name)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}

func TestNewRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(
		ParameterDescriptor{ShortName: "a", CatalogKey: "A"},
		ParameterDescriptor{ShortName: "a", CatalogKey: "B"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)

	_, err = NewRegistry(ParameterDescriptor{CatalogKey: "A"})
	assert.Error(t, err)
}
