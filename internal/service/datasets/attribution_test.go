package datasets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/cache"
	"github.com/ougirez/cancensus/internal/pkg/censusmapper"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

var testCatalog = []domain.DatasetInfo{
	{Dataset: "CA06", Description: "2006 Canada Census", Attribution: "StatCan 2006 Census"},
	{Dataset: "CA16", Description: "2016 Canada Census", Attribution: "StatCan 2016 Census"},
	{Dataset: "CA21", Description: "2021 Canada Census", Attribution: "StatCan 2021 Census"},
	{Dataset: "CA1996", Description: "1996 Canada Census"},
	{Dataset: "CA96", Description: "1996 Canada Census"},
	{Dataset: "TX2017", Description: "2017 T1FF taxfiler data", Attribution: "StatCan 2017 T1FF"},
	{Dataset: "TX2018", Description: "2018 T1FF taxfiler data", Attribution: "StatCan 2018 T1FF"},
	{Dataset: "XX16", Description: "Other program", Attribution: "StatCan 2016 Census"},
	{Dataset: "XX21", Description: "Other program", Attribution: "StatCan 2021 Census"},
	{Dataset: "CA16xSD", Description: "2016 census boundaries", Attribution: "StatCan 2016 Census, boundaries 2016"},
	{Dataset: "CA21xSD", Description: "2021 census boundaries", Attribution: "StatCan 2021 Census, boundaries 2021"},
}

func TestMergeAttribution(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		want  []string
	}{
		{"single", []string{"CA16"}, []string{"StatCan 2016 Census"}},
		{"merged census years", []string{"CA21", "CA16"}, []string{"StatCan 2016, 2021 Census"}},
		{"case insensitive", []string{" ca16 ", "CA21"}, []string{"StatCan 2016, 2021 Census"}},
		{"duplicates", []string{"CA16", "ca16"}, []string{"StatCan 2016 Census"}},
		{"separate programs", []string{"CA16", "TX2017", "TX2018", "CA06"},
			[]string{"StatCan 2006, 2016 Census", "StatCan 2017, 2018 T1FF"}},
		{"unknown prefix never merges", []string{"XX16", "XX21"}, []string{"StatCan 2016 Census", "StatCan 2021 Census"}},
		{"unknown codes skipped", []string{"INVALID", "CA16"}, []string{"StatCan 2016 Census"}},
		{"fallback text", []string{"CA96"}, []string{"Statistics Canada 1996 Census"}},
		{"every year templated", []string{"CA16xSD", "CA21xSD"}, []string{"StatCan 2016, 2021 Census, boundaries 2016, 2021"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MergeAttribution(testCatalog, tt.codes, DefaultLineage)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeAttribution_FirstAppearanceOrder(t *testing.T) {
	got, err := MergeAttribution(testCatalog, []string{"TX2018", "CA21", "TX2017", "CA16"}, DefaultLineage)
	require.NoError(t, err)
	assert.Equal(t, []string{"StatCan 2017, 2018 T1FF", "StatCan 2016, 2021 Census"}, got)
}

func TestMergeAttribution_UnknownDataset(t *testing.T) {
	_, err := MergeAttribution(testCatalog, []string{"INVALID"}, DefaultLineage)
	assert.ErrorIs(t, err, constants.ErrUnknownDataset)

	_, err = MergeAttribution(testCatalog, nil, DefaultLineage)
	assert.ErrorIs(t, err, constants.ErrUnknownDataset)
}

func TestFallbackAttribution(t *testing.T) {
	assert.Equal(t, "Statistics Canada 2016 Census", fallbackAttribution("CA16"))
	assert.Equal(t, "Statistics Canada 1996 Census", fallbackAttribution("CA96"))
	assert.Equal(t, "Statistics Canada 1996 Census", fallbackAttribution("CA1996"))
	assert.Equal(t, "Statistics Canada Census", fallbackAttribution("CA"))
}

const datasetsJSON = `[
  {"dataset":"CA16","description":"2016 Canada Census","geo_dataset":"CA16","attribution":"StatCan 2016 Census","reference":"98-316-X2016001","reference_url":"https://www12.statcan.gc.ca/"},
  {"dataset":"CA21","description":"2021 Canada Census","geo_dataset":"CA21","attribution":"StatCan 2021 Census","reference":"98-316-X2021001","reference_url":"https://www12.statcan.gc.ca/"}
]`

func newTestService(t *testing.T, body string, opts ...Option) (*Service, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/list_datasets", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	apiKey := func() string { return "k" }
	client := censusmapper.NewClient(srv.URL, 5*time.Second, apiKey)
	return NewDatasetsService(client, cache.NewDirStore(t.TempDir()), apiKey, nil, opts...), &requests
}

func TestService_ListDatasets(t *testing.T) {
	t.Run("bare list", func(t *testing.T) {
		s, requests := newTestService(t, datasetsJSON)
		ds, err := s.ListDatasets(context.Background(), domain.FetchOptions{})
		require.NoError(t, err)
		require.Len(t, ds, 2)
		assert.Equal(t, "CA16", ds[0].Dataset)
		assert.Equal(t, "98-316-X2016001", ds[0].Reference)

		_, err = s.ListDatasets(context.Background(), domain.FetchOptions{})
		require.NoError(t, err)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("wrapped", func(t *testing.T) {
		s, _ := newTestService(t, `{"datasets":`+datasetsJSON+`}`)
		ds, err := s.ListDatasets(context.Background(), domain.FetchOptions{})
		require.NoError(t, err)
		assert.Len(t, ds, 2)
	})

	t.Run("invalid", func(t *testing.T) {
		s, _ := newTestService(t, `{"data":[]}`)
		_, err := s.ListDatasets(context.Background(), domain.FetchOptions{})
		assert.ErrorIs(t, err, constants.ErrInvalidResponse)
	})
}

func TestService_Attribution(t *testing.T) {
	s, _ := newTestService(t, datasetsJSON)
	ctx := context.Background()

	got, err := s.Attribution(ctx, []string{"CA16", "CA21"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "2016")
	assert.Contains(t, got[0], "2021")

	lower, err := s.Attribution(ctx, []string{"ca16", "ca21"})
	require.NoError(t, err)
	assert.Equal(t, got, lower)

	_, err = s.Attribution(ctx, []string{"INVALID"})
	assert.ErrorIs(t, err, constants.ErrUnknownDataset)
}

func TestService_AttributionCustomLineage(t *testing.T) {
	s, _ := newTestService(t, datasetsJSON, WithLineage(map[string]string{"tx": "taxfiler"}))
	got, err := s.Attribution(context.Background(), []string{"CA16", "CA21"})
	require.NoError(t, err)
	assert.Equal(t, []string{"StatCan 2016 Census", "StatCan 2021 Census"}, got)
}
