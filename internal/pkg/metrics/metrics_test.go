package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	c.CacheLookup("census", true)
	c.CacheLookup("census", false)
	c.CacheLookup("census", false)
	c.CacheWriteError()
	c.Upstream("data.csv", "200", 150*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("census", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("census", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheWriteErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.upstreamRequests.WithLabelValues("data.csv", "200")))

	n, err := testutil.GatherAndCount(reg, "cancensus_upstream_request_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.CacheLookup("census", true)
		c.CacheWriteError()
		c.Upstream("data.csv", "error", time.Second)
	})
}
