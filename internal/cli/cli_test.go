package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/openwx-service/internal/domain"
	"github.com/couchcryptid/openwx-service/internal/gfstest"
)

var run = time.Date(2022, 11, 12, 0, 0, 0, 0, time.UTC)

func newGFS(t *testing.T) *gfstest.Server {
	t.Helper()
	srv := gfstest.NewServer(t)
	srv.Add(domain.ProductPGRB2, run, 1, gfstest.BuildFile(run, 1,
		gfstest.Message{Parameter: "PRMSL", Level: "mean sea level"},
		gfstest.Message{Parameter: "TMP", Level: "2 m above ground"},
		gfstest.Message{Parameter: "TMP", Level: "2 m above ground", Payload: []byte("GRIBdup7777")},
		gfstest.Message{Parameter: "RH", Level: "2 m above ground"},
	))
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParams(t *testing.T) {
	out, err := execute(t, "params")
	require.NoError(t, err)
	assert.Contains(t, out, "PARAMETER")
	for _, name := range domain.Parameters.ShortNames() {
		assert.Contains(t, out, name)
	}
}

func TestParams_JSON(t *testing.T) {
	out, err := execute(t, "params", "--format", "json")
	require.NoError(t, err)

	var params []domain.ParameterDescriptor
	require.NoError(t, json.Unmarshal([]byte(out), &params))
	assert.Len(t, params, len(domain.Parameters.All()))
}

func TestURLs(t *testing.T) {
	out, err := execute(t, "urls", "--base-url", "https://gfs.test/", "--product", "pgrb2b", "--run", "2022111206", "--fh", "12")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "https://gfs.test/gfs.20221112/06/atmos/gfs.t06z.pgrb2b.0p25.f012", lines[0])
	assert.Equal(t, "https://gfs.test/gfs.20221112/06/atmos/gfs.t06z.pgrb2b.0p25.f012.idx", lines[1])
}

func TestURLs_Errors(t *testing.T) {
	_, err := execute(t, "urls", "--fh", "1")
	require.Error(t, err, "run is required")

	_, err = execute(t, "urls", "--run", "yesterday")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = execute(t, "urls", "--run", "2022111200", "--product", "pgrb3")
	require.Error(t, err)
}

func TestCatalog(t *testing.T) {
	gfs := newGFS(t)
	out, err := execute(t, "catalog", "--base-url", gfs.URL, "--run", "2022111200", "--fh", "1", "-p", "TMP")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.Contains(t, lines[1], "2 m above ground")
	assert.NotContains(t, lines[1], "shadowed")
	assert.Contains(t, lines[2], "shadowed")
	assert.Empty(t, gfs.RangeRequests())
}

func TestCatalog_JSON(t *testing.T) {
	gfs := newGFS(t)
	out, err := execute(t, "catalog", "--base-url", gfs.URL, "--run", "2022111200", "--fh", "1", "--format", "json")
	require.NoError(t, err)

	var rows []struct {
		Position  int    `json:"position"`
		Parameter string `json:"parameter"`
		Range     struct {
			Start int64  `json:"start"`
			Stop  *int64 `json:"stop"`
		} `json:"range"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, int64(0), rows[0].Range.Start)
	assert.Equal(t, "RH", rows[3].Parameter)
	assert.Nil(t, rows[3].Range.Stop)
}

func TestCatalog_Strict(t *testing.T) {
	gfs := newGFS(t)
	_, err := execute(t, "catalog", "--base-url", gfs.URL, "--run", "2022111200", "--fh", "1", "--strict")
	assert.ErrorIs(t, err, domain.ErrDuplicateCatalogEntry)
}

func TestFetch_ToFile(t *testing.T) {
	gfs := newGFS(t)
	path := filepath.Join(t.TempDir(), "tmp.grib2")

	out, err := execute(t, "fetch", "--base-url", gfs.URL, "--run", "2022111200", "--fh", "1",
		"-p", "temperature", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2022111200/f001/TMP/2 m above ground")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, gfstest.DefaultPayload("TMP", "2 m above ground"), data, "first occurrence wins")
}

func TestFetch_ToStdout(t *testing.T) {
	gfs := newGFS(t)
	out, err := execute(t, "fetch", "--base-url", gfs.URL, "--run", "2022111200", "--fh", "1",
		"-p", "relative_humidity", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, string(gfstest.DefaultPayload("RH", "2 m above ground")), out)
}

func TestFetch_Errors(t *testing.T) {
	gfs := newGFS(t)

	_, err := execute(t, "fetch", "--base-url", gfs.URL, "--run", "2022111200", "--fh", "1", "-p", "u_wind", "-o", "-")
	assert.ErrorIs(t, err, domain.ErrParameterNotInCatalog)

	_, err = execute(t, "fetch", "--base-url", gfs.URL, "--run", "2022111200", "--fh", "1", "-p", "temperature")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output")

	_, err = execute(t, "fetch", "--base-url", gfs.URL, "--run", "2022111200", "--fh", "9", "-p", "temperature", "-o", "-")
	assert.ErrorIs(t, err, domain.ErrCatalogFetchFailed)
}
