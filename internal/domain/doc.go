// Package domain models selective retrieval of NOAA Global Forecast System
// (GFS) GRIB2 records.
//
// # Data Source
//
// GFS output is published per model run (00, 06, 12, 18 UTC) as one GRIB2 file
// per forecast hour, e.g. on the NOAA open-data bucket:
//
//	https://noaa-gfs-bdp-pds.s3.amazonaws.com/gfs.20221112/00/atmos/gfs.t00z.pgrb2.0p25.f001
//
// Files are several hundred megabytes and are concatenations of self-contained
// GRIB2 messages ("records"), one per parameter and level. Two product
// families exist: pgrb2 (common fields) and pgrb2b (supplementary fields).
// See [Locator].
//
// # Catalog Format
//
// Every file has a wgrib2 "short inventory" next to it with an .idx suffix.
// One line per record:
//
//	1:0:d=2022111200:PRMSL:mean sea level:1 hour fcst:
//	2:990417:d=2022111200:CLWMR:1 hybrid level:1 hour fcst:
//
// Fields are sequence, start byte offset, run tag, parameter abbreviation,
// level and a free-text description (which may contain colons). Only start
// offsets are listed; a record ends one byte before the next record starts,
// and the last record runs to the end of the file. [ParseCatalog] derives
// those spans by folding over the lines in reverse.
//
// # Retrieval
//
// A record is fetched with an HTTP Range request for its span and accepted
// only if it begins with the four-byte "GRIB" magic. Payload decoding is left
// to a [RecordDecoder].
//
// # Parameters
//
// A parameter has four names: the public short name ("temperature"), the
// OPeNDAP variable ("tmp2m"), the catalog abbreviation ("TMP") and the GRIB
// decoder short name ("t2m"). [Parameters] holds the fixed mapping.
package domain
