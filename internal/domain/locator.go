package domain

import (
	"fmt"
	"strings"
	"time"
)

// Product is a GFS GRIB2 product family published for every run.
type Product string

const (
	// ProductPGRB2 holds the commonly used fields (pgrb2).
	ProductPGRB2 Product = "pgrb2"
	// ProductPGRB2B holds the supplementary fields (pgrb2b).
	ProductPGRB2B Product = "pgrb2b"
)

// ParseProduct validates a product family name.
func ParseProduct(s string) (Product, error) {
	switch p := Product(strings.ToLower(strings.TrimSpace(s))); p {
	case ProductPGRB2, ProductPGRB2B:
		return p, nil
	default:
		return "", fmt.Errorf("unknown product family %q (want pgrb2 or pgrb2b)", s)
	}
}

// Locator builds the URLs of 0.25 degree GFS files for one product family on
// one host, e.g. the NOAA open-data bucket or NOMADS.
type Locator struct {
	BaseURL string
	Product Product
}

// FileURL returns the URL of the GRIB2 file for a run and forecast hour:
//
//	{base}/gfs.{YYYYMMDD}/{HH}/atmos/gfs.t{HH}z.{product}.0p25.f{FFF}
func (l Locator) FileURL(run time.Time, forecastHour int) string {
	run = run.UTC()
	return fmt.Sprintf("%s/gfs.%s/%02d/atmos/gfs.t%02dz.%s.0p25.f%03d",
		strings.TrimRight(l.BaseURL, "/"),
		run.Format("20060102"), run.Hour(), run.Hour(),
		l.Product, forecastHour,
	)
}

// CatalogURL returns the URL of the .idx catalog that accompanies FileURL.
func (l Locator) CatalogURL(run time.Time, forecastHour int) string {
	return l.FileURL(run, forecastHour) + ".idx"
}

// DatasetLocator builds OPeNDAP dataset URLs for the hourly 0.25 degree GFS
// aggregation served by NOMADS.
type DatasetLocator struct {
	BaseURL string
}

// DatasetURL returns {base}/dods/gfs_0p25_1hr/gfs{YYYYMMDD}/gfs_0p25_1hr_{HH}z.
func (l DatasetLocator) DatasetURL(run time.Time) string {
	run = run.UTC()
	return fmt.Sprintf("%s/dods/gfs_0p25_1hr/gfs%s/gfs_0p25_1hr_%02dz",
		strings.TrimRight(l.BaseURL, "/"), run.Format("20060102"), run.Hour())
}
