package domain

import (
	"fmt"
	"slices"
	"strings"
)

// ParameterDescriptor names one weather parameter in every scheme it is known
// by. Values are copied out of the registry, so callers cannot mutate it.
type ParameterDescriptor struct {
	ShortName  string `json:"parameter"`   // stable public name, e.g. "temperature"
	DatasetKey string `json:"dataset_key"` // OPeNDAP variable, e.g. "tmp2m"
	CatalogKey string `json:"catalog_key"` // .idx abbreviation, e.g. "TMP"
	DecoderKey string `json:"decoder_key"` // GRIB decoder short name, e.g. "t2m"
	Unit       string `json:"unit"`
	Level      string `json:"level"` // default .idx level
}

// Registry is an immutable lookup of parameter descriptors by short name.
type Registry struct {
	byName map[string]ParameterDescriptor
	sorted []ParameterDescriptor
}

// NewRegistry builds a registry. Short names must be unique.
func NewRegistry(descriptors ...ParameterDescriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]ParameterDescriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.ShortName == "" {
			return nil, fmt.Errorf("parameter descriptor without short name: %+v", d)
		}
		if _, dup := r.byName[d.ShortName]; dup {
			return nil, fmt.Errorf("duplicate parameter short name %q", d.ShortName)
		}
		r.byName[d.ShortName] = d
		r.sorted = append(r.sorted, d)
	}
	slices.SortFunc(r.sorted, func(a, b ParameterDescriptor) int {
		return strings.Compare(a.ShortName, b.ShortName)
	})
	return r, nil
}

// Lookup returns the descriptor for a short name. An unknown name is a normal
// miss, not an error.
func (r *Registry) Lookup(shortName string) (ParameterDescriptor, bool) {
	d, ok := r.byName[shortName]
	return d, ok
}

// All returns every descriptor, sorted by short name.
func (r *Registry) All() []ParameterDescriptor {
	return slices.Clone(r.sorted)
}

// ShortNames returns every short name, sorted.
func (r *Registry) ShortNames() []string {
	names := make([]string, len(r.sorted))
	for i, d := range r.sorted {
		names[i] = d.ShortName
	}
	return names
}

// Parameters is the process-wide registry of supported GFS parameters.
var Parameters = mustRegistry(
	ParameterDescriptor{ShortName: "temperature", DatasetKey: "tmp2m", CatalogKey: "TMP", DecoderKey: "t2m", Unit: "K", Level: "2 m above ground"},
	ParameterDescriptor{ShortName: "relative_humidity", DatasetKey: "rh2m", CatalogKey: "RH", DecoderKey: "r2", Unit: "%", Level: "2 m above ground"},
	ParameterDescriptor{ShortName: "wind_gust_speed", DatasetKey: "gustsfc", CatalogKey: "GUST", DecoderKey: "gust", Unit: "m/s", Level: "surface"},
	ParameterDescriptor{ShortName: "dewpoint_temperature", DatasetKey: "dpt2m", CatalogKey: "DPT", DecoderKey: "d2m", Unit: "K", Level: "2 m above ground"},
	ParameterDescriptor{ShortName: "mean_sea_level_pressure", DatasetKey: "prmslmsl", CatalogKey: "PRMSL", DecoderKey: "prmsl", Unit: "Pa", Level: "mean sea level"},
	ParameterDescriptor{ShortName: "u_wind", DatasetKey: "ugrd10m", CatalogKey: "UGRD", DecoderKey: "u10", Unit: "m/s", Level: "10 m above ground"},
	ParameterDescriptor{ShortName: "v_wind", DatasetKey: "vgrd10m", CatalogKey: "VGRD", DecoderKey: "v10", Unit: "m/s", Level: "10 m above ground"},
	ParameterDescriptor{ShortName: "precipitation_rate", DatasetKey: "pratesfc", CatalogKey: "PRATE", DecoderKey: "prate", Unit: "kg/m^2/s", Level: "surface"},
)

func mustRegistry(descriptors ...ParameterDescriptor) *Registry {
	r, err := NewRegistry(descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}
