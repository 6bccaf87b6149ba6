package vectors

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

const vectorInfoCSV = `vector,type,label,units,parent_vector,aggregation,details
v_CA16_1,Total,Age Stats,Number,NA,Additive,"CA 2016 Census; Population; Age Stats"
v_CA16_4,Total,0 to 14 years,Number,v_CA16_1,Additive,"CA 2016 Census; Population; Age Stats; 0 to 14 years"
v_CA16_7,Total,0 to 4 years,Number,v_CA16_4,Additive,"CA 2016 Census; Population; Age Stats; 0 to 14 years; 0 to 4 years"
v_CA16_2397,Total,Median total income of households in 2015 ($),Currency,,Median of v_CA16_2396,"Income; Households"
`

func TestParseCatalog(t *testing.T) {
	vs, err := ParseCatalog([]byte(vectorInfoCSV))
	require.NoError(t, err)
	require.Len(t, vs, 4)

	assert.Equal(t, domain.Vector{
		Vector: "v_CA16_1", Type: "Total", Label: "Age Stats", Units: "Number",
		Aggregation: "Additive", Details: "CA 2016 Census; Population; Age Stats",
	}, vs[0])
	assert.True(t, vs[0].IsRoot(), "NA parent is a root")
	assert.Equal(t, "v_CA16_4", vs[2].ParentVector)
	assert.Equal(t, "Median of v_CA16_2396", vs[3].Aggregation)
}

func TestParseCatalog_AlternateHeaders(t *testing.T) {
	vs, err := ParseCatalog([]byte("Vector,Type,Label,Units,Parent,Add,Details\nv_CA21_2,Total,x,Number,v_CA21_1,Additive,d\n"))
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "v_CA21_1", vs[0].ParentVector)
	assert.Equal(t, "Additive", vs[0].Aggregation)
}

func TestParseCatalog_Invalid(t *testing.T) {
	_, err := ParseCatalog(nil)
	assert.ErrorIs(t, err, constants.ErrInvalidResponse)
	_, err = ParseCatalog([]byte("label,units\nx,y\n"))
	assert.ErrorIs(t, err, constants.ErrInvalidResponse)
}

func TestDatasetOf(t *testing.T) {
	ds, ok := DatasetOf("v_CA16_408")
	assert.True(t, ok)
	assert.Equal(t, "CA16", ds)

	_, ok = DatasetOf("CA16_408")
	assert.False(t, ok)
}

func newTestService(t *testing.T) (*Service, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/vector_info/CA16.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(vectorInfoCSV))
	}))
	t.Cleanup(srv.Close)

	apiKey := func() string { return "k" }
	client := censusmapper.NewClient(srv.URL, 5*time.Second, apiKey)
	return NewVectorsService(client, cache.NewDirStore(t.TempDir()), apiKey, nil), &requests
}

func TestService_Hierarchy(t *testing.T) {
	s, requests := newTestService(t)
	ctx := context.Background()

	vs, err := s.ListVectors(ctx, "ca16", domain.FetchOptions{})
	require.NoError(t, err)
	assert.Len(t, vs, 4)

	parent, err := s.Parent(ctx, "v_CA16_7")
	require.NoError(t, err)
	require.Len(t, parent, 1)
	assert.Equal(t, "v_CA16_4", parent[0].Vector)

	children, err := s.Children(ctx, "v_CA16_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"v_CA16_4"}, codes(children))

	anc, err := s.Ancestors(ctx, "v_CA16_7")
	require.NoError(t, err)
	assert.Equal(t, []string{"v_CA16_4", "v_CA16_1"}, codes(anc))

	desc, err := s.Descendants(ctx, "v_CA16_1", DescendantOptions{LeavesOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"v_CA16_7"}, codes(desc))

	found, err := s.Search(ctx, "CA16", SearchFilter{Units: "Currency"})
	require.NoError(t, err)
	assert.Equal(t, []string{"v_CA16_2397"}, codes(found))

	found, err = s.Find(ctx, "CA16", "income households")
	require.NoError(t, err)
	assert.Equal(t, []string{"v_CA16_2397"}, codes(found))

	assert.Equal(t, int32(1), requests.Load(), "index built once per catalog")

	_, err = s.Parent(ctx, "v_CA16_99999")
	assert.ErrorIs(t, err, constants.ErrUnknownVector)
	_, err = s.Parent(ctx, "nonsense")
	assert.ErrorIs(t, err, constants.ErrUnknownVector)
}

func TestService_ListVectors_DiskCache(t *testing.T) {
	s, requests := newTestService(t)
	ctx := context.Background()

	_, err := s.ListVectors(ctx, "CA16", domain.FetchOptions{NoCache: true})
	require.NoError(t, err)
	_, err = s.ListVectors(ctx, "CA16", domain.FetchOptions{NoCache: true})
	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load())

	_, err = s.ListVectors(ctx, "CA16", domain.FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load(), "memoised index is reused")
}

func TestService_ListVectors_Errors(t *testing.T) {
	s, requests := newTestService(t)
	ctx := context.Background()

	_, err := s.ListVectors(ctx, "Canada", domain.FetchOptions{})
	assert.ErrorIs(t, err, constants.ErrInvalidDataset)

	_, err = s.ListVectors(ctx, "CA21", domain.FetchOptions{})
	assert.True(t, constants.IsTransport(err))

	s.apiKey = func() string { return "" }
	_, err = s.ListVectors(ctx, "CA11", domain.FetchOptions{})
	assert.ErrorIs(t, err, constants.ErrMissingCredential)
	assert.Equal(t, int32(1), requests.Load())
}
