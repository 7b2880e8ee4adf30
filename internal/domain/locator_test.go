package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "https://noaa-gfs-bdp-pds.s3.amazonaws.com"

func TestLocator_URLs(t *testing.T) {
	run := time.Date(2022, 11, 12, 0, 0, 0, 0, time.UTC)

	t.Run("pgrb2b", func(t *testing.T) {
		l := Locator{BaseURL: testBucket, Product: ProductPGRB2B}
		assert.Equal(t, testBucket+"/gfs.20221112/00/atmos/gfs.t00z.pgrb2b.0p25.f001", l.FileURL(run, 1))
		assert.Equal(t, testBucket+"/gfs.20221112/00/atmos/gfs.t00z.pgrb2b.0p25.f001.idx", l.CatalogURL(run, 1))
	})

	t.Run("pgrb2", func(t *testing.T) {
		l := Locator{BaseURL: testBucket, Product: ProductPGRB2}
		assert.Equal(t, testBucket+"/gfs.20221112/00/atmos/gfs.t00z.pgrb2.0p25.f001", l.FileURL(run, 1))
	})

	t.Run("padding and trailing slash", func(t *testing.T) {
		l := Locator{BaseURL: "http://mirror.example/", Product: ProductPGRB2}
		late := time.Date(2023, 1, 2, 18, 0, 0, 0, time.UTC)
		assert.Equal(t, "http://mirror.example/gfs.20230102/18/atmos/gfs.t18z.pgrb2.0p25.f384", l.FileURL(late, 384))
	})

	t.Run("non-UTC run is normalized", func(t *testing.T) {
		l := Locator{BaseURL: testBucket, Product: ProductPGRB2}
		est := time.FixedZone("EST", -5*3600)
		local := time.Date(2022, 11, 11, 19, 0, 0, 0, est) // 2022-11-12T00:00Z
		assert.Equal(t, l.FileURL(run, 6), l.FileURL(local, 6))
	})
}

func TestDatasetLocator_DatasetURL(t *testing.T) {
	l := DatasetLocator{BaseURL: "http://nomads.ncep.noaa.gov:80"}
	run := time.Date(2022, 11, 5, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "http://nomads.ncep.noaa.gov:80/dods/gfs_0p25_1hr/gfs20221105/gfs_0p25_1hr_12z", l.DatasetURL(run))
}

func TestParseProduct(t *testing.T) {
	p, err := ParseProduct("pgrb2")
	require.NoError(t, err)
	assert.Equal(t, ProductPGRB2, p)

	p, err = ParseProduct(" PGRB2B ")
	require.NoError(t, err)
	assert.Equal(t, ProductPGRB2B, p)

	_, err = ParseProduct("pgrb3")
	assert.Error(t, err)
}
