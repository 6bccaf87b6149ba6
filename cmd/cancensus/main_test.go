package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

const (
	canadaCSV = "GeoUID,Type,Region Name,Area (sq km),Population ,Dwellings ,Households ,\"v_CA16_1: Age Stats\"\n" +
		"01,C,Canada,8965588.85,35151728,15412443,14072079,35151728\n"

	vectorCSV = "vector,type,label,units,parent_vector,aggregation,details\n" +
		"v_CA16_1,Total,Age Stats,Number,NA,Additive,Age\n" +
		"v_CA16_4,Total,0 to 14 years,Number,v_CA16_1,Additive,Age; 0 to 14\n" +
		"v_CA16_7,Total,0 to 4 years,Number,v_CA16_4,Additive,Age; 0 to 14; 0 to 4\n"
)

type testCLI struct {
	dir          string
	upstream     *httptest.Server
	dataRequests atomic.Int32
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	t.Setenv("CANCENSUS_API_KEY", "")
	t.Setenv("CANCENSUS_DATABASE_DSN", "")
	t.Setenv("CANCENSUS_ADMIN_SECRET", "")
	tc := &testCLI{dir: t.TempDir()}

	tc.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.csv":
			tc.dataRequests.Add(1)
			_, _ = w.Write([]byte(canadaCSV))
		case "/vector_info/CA16.csv":
			_, _ = w.Write([]byte(vectorCSV))
		case "/list_datasets":
			_, _ = w.Write([]byte(`[{"dataset":"CA16","attribution":"StatCan 2016 Census"},{"dataset":"CA21","attribution":"StatCan 2021 Census"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(tc.upstream.Close)
	return tc
}

// run executes one CLI invocation against the fake upstream.
func (tc *testCLI) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{
		"--base-url", tc.upstream.URL,
		"--cache-path", filepath.Join(tc.dir, "cache"),
		"--key-store", filepath.Join(tc.dir, "config.json"),
		"--log-level", "error",
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseRegions(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    domain.RegionSelector
		wantErr error
	}{
		{
			name:  "single",
			specs: []string{"CMA=59933"},
			want:  domain.RegionSelector{domain.LevelCMA: {"59933"}},
		},
		{
			name:  "list and case",
			specs: []string{"csd=5915022, 5915004"},
			want:  domain.RegionSelector{domain.LevelCSD: {"5915022", "5915004"}},
		},
		{
			name:  "repeated level appends",
			specs: []string{"PR=59", "PR=35", "C=01"},
			want:  domain.RegionSelector{domain.LevelPR: {"59", "35"}, domain.LevelC: {"01"}},
		},
		{
			name:    "missing separator",
			specs:   []string{"59933"},
			wantErr: constants.ErrInvalidRegions,
		},
		{
			name:    "no ids",
			specs:   []string{"CMA= ,"},
			wantErr: constants.ErrInvalidRegions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRegions(tt.specs)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBBox(t *testing.T) {
	g, err := parseBBox("-123.3, 49.0, -122.5, 49.4")
	require.NoError(t, err)

	poly, ok := g.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{-123.3, 49.0}, Max: orb.Point{-122.5, 49.4}}, poly.Bound())

	for _, bad := range []string{"1,2,3", "a,b,c,d", "5,5,1,1"} {
		_, err := parseBBox(bad)
		assert.ErrorIs(t, err, constants.ErrInvalidParameter, bad)
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", maskKey("abcd"))
	assert.Equal(t, "*****6789", maskKey("abcd56789"))
}

func TestDescribeRequest(t *testing.T) {
	assert.Equal(t, "census CA16 C 2 vectors", describeRequest(domain.CacheMeta{
		Kind: "census", Dataset: "CA16", Level: domain.LevelC, Vectors: []string{"v_CA16_1", "v_CA16_4"},
	}))
	assert.Equal(t, "census CA21 CSD 1 vector geojson", describeRequest(domain.CacheMeta{
		Kind: "census", Dataset: "CA21", Level: domain.LevelCSD, Vectors: []string{"v_CA21_1"}, GeoFormat: domain.GeoFormatGeoJSON,
	}))
	assert.Equal(t, "datasets", describeRequest(domain.CacheMeta{Kind: "datasets"}))
}

func TestCLI_Census(t *testing.T) {
	tc := newTestCLI(t)

	args := []string{"census", "--api-key", "k", "-d", "ca16", "-l", "C", "-r", "C=01", "-v", "v_CA16_1", "-o", "csv"}
	out, err := tc.run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "GeoUID,Type,Region Name")
	assert.Contains(t, out, "Canada")
	assert.Contains(t, out, "35151728")

	again, err := tc.run(t, args...)
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Equal(t, int32(1), tc.dataRequests.Load())
}

func TestCLI_CensusErrors(t *testing.T) {
	tc := newTestCLI(t)

	_, err := tc.run(t, "census", "-d", "CA16", "-r", "C=01")
	assert.ErrorIs(t, err, constants.ErrMissingCredential)

	_, err = tc.run(t, "census", "--api-key", "k", "-d", "Canada", "-r", "C=01")
	assert.ErrorIs(t, err, constants.ErrInvalidDataset)

	_, err = tc.run(t, "census", "--api-key", "k", "-d", "CA16", "-r", "C=01", "-o", "yaml")
	assert.ErrorIs(t, err, constants.ErrInvalidParameter)

	assert.Zero(t, tc.dataRequests.Load())
}

func TestCLI_Vectors(t *testing.T) {
	tc := newTestCLI(t)

	out, err := tc.run(t, "children", "v_CA16_1", "--api-key", "k")
	require.NoError(t, err)
	assert.Contains(t, out, "v_CA16_4")
	assert.NotContains(t, out, "v_CA16_7")

	out, err = tc.run(t, "descendants", "v_CA16_1", "--leaves-only", "--api-key", "k", "-o", "json")
	require.NoError(t, err)
	var leaves []domain.Vector
	require.NoError(t, sonic.UnmarshalString(out, &leaves))
	require.Len(t, leaves, 1)
	assert.Equal(t, "v_CA16_7", leaves[0].Vector)

	out, err = tc.run(t, "vectors", "CA16", "0", "to", "4", "--find", "--api-key", "k")
	require.NoError(t, err)
	assert.Contains(t, out, "v_CA16_7")
}

func TestCLI_Attribution(t *testing.T) {
	tc := newTestCLI(t)

	out, err := tc.run(t, "attribution", "CA16", "ca21", "--api-key", "k")
	require.NoError(t, err)
	assert.Equal(t, "StatCan 2016, 2021 Census\n", out)

	_, err = tc.run(t, "attribution", "XX99", "--api-key", "k")
	assert.ErrorIs(t, err, constants.ErrUnknownDataset)
}

func TestCLI_Key(t *testing.T) {
	tc := newTestCLI(t)

	_, err := tc.run(t, "key", "show")
	assert.ErrorIs(t, err, constants.ErrMissingCredential)

	out, err := tc.run(t, "key", "set", "CensusMapper_0123456789")
	require.NoError(t, err)
	assert.Contains(t, out, "config.json")

	out, err = tc.run(t, "key", "show")
	require.NoError(t, err)
	assert.Equal(t, "*******************6789\n", out)

	_, err = tc.run(t, "key", "remove")
	require.NoError(t, err)
	_, err = tc.run(t, "key", "show")
	assert.ErrorIs(t, err, constants.ErrMissingCredential)
}

func TestCLI_Cache(t *testing.T) {
	tc := newTestCLI(t)

	_, err := tc.run(t, "census", "--api-key", "k", "-d", "CA16", "-l", "C", "-r", "C=01")
	require.NoError(t, err)

	out, err := tc.run(t, "cache", "list", "-o", "json")
	require.NoError(t, err)
	var entries []domain.CacheEntry
	require.NoError(t, sonic.UnmarshalString(out, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "CA16", entries[0].Request.Dataset)

	out, err = tc.run(t, "cache", "list")
	require.NoError(t, err)
	assert.Contains(t, out, entries[0].Key)
	assert.Contains(t, out, "SIZE")

	out, err = tc.run(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 cached responses")

	out, err = tc.run(t, "cache-path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tc.dir, "cache")+"\n", out)
}

func TestCLI_WarehouseDisabled(t *testing.T) {
	tc := newTestCLI(t)

	_, err := tc.run(t, "export", "--api-key", "k", "-d", "CA16", "-r", "C=01")
	assert.ErrorIs(t, err, constants.ErrNoWarehouse)

	_, err = tc.run(t, "warehouse", "values", "CA16", "v_CA16_1")
	assert.ErrorIs(t, err, constants.ErrNoWarehouse)
	assert.Zero(t, tc.dataRequests.Load())
}

func TestCLI_AdminToken(t *testing.T) {
	tc := newTestCLI(t)

	_, err := tc.run(t, "admin-token")
	assert.ErrorIs(t, err, constants.ErrInvalidParameter)

	out, err := tc.run(t, "admin-token", "--admin-secret", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
