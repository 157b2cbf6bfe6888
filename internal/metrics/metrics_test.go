package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.Hit("userStats")
	p.Hit("userStats")
	p.Miss("feedBlogs")
	p.Expired("followStatus")
	p.Invalidate("userProfiles", 3)
	p.Invalidate("userProfiles", 0)

	assert.InDelta(t, 2, testutil.ToFloat64(p.hits.WithLabelValues("userStats")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.misses.WithLabelValues("feedBlogs")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.expired.WithLabelValues("followStatus")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(p.invalidations.WithLabelValues("userProfiles")), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)
}

func TestPrometheus_NilRegisterer(t *testing.T) {
	p := NewPrometheus(nil)
	assert.NotPanics(t, func() { p.Hit("userBlogs") })
}

func TestNoop(t *testing.T) {
	var r Recorder = Noop{}
	assert.NotPanics(t, func() {
		r.Hit("a")
		r.Miss("a")
		r.Expired("a")
		r.Invalidate("a", 1)
	})
}
