package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg)

	SetConnected(true)
	SetConnected(false)
	SetConnected(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(transportConnected))
	assert.Equal(t, 2.0, testutil.ToFloat64(transportConnects))

	IncFrame("device")
	IncFrame("")
	assert.Equal(t, 1.0, testutil.ToFloat64(framesTotal.WithLabelValues("device")))
	assert.Equal(t, 1.0, testutil.ToFloat64(framesTotal.WithLabelValues("none")))

	IncDropped("unknown_target")
	IncSchemaViolation("tag")
	IncFetch("location")
	IncSinkWrite("mqtt", ResultError)
	ObserveRefresh(ResultSuccess, 20*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(framesDropped.WithLabelValues("unknown_target")))
	assert.Equal(t, 1.0, testutil.ToFloat64(schemaViolations.WithLabelValues("tag")))
	assert.Equal(t, 1.0, testutil.ToFloat64(fetchesSent.WithLabelValues("location")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sinkWrites.WithLabelValues("mqtt", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(refreshTotal.WithLabelValues(ResultSuccess)))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP fleetsync_router_frames_dropped_total Total inbound frames dropped by reason
# TYPE fleetsync_router_frames_dropped_total counter
fleetsync_router_frames_dropped_total{reason="unknown_target"} 1
`), "fleetsync_router_frames_dropped_total")
	require.NoError(t, err)

	// A second Init is a no-op.
	Init(prometheus.NewRegistry())
	assert.Equal(t, 1.0, testutil.ToFloat64(transportConnected))
}
