package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMonitorCounters(t *testing.T) {
	m := NewMonitor()

	before := testutil.ToFloat64(snapshotCache.WithLabelValues("hit"))
	m.TrackSnapshotCache("hit")
	assert.Equal(t, before+1, testutil.ToFloat64(snapshotCache.WithLabelValues("hit")))

	before = testutil.ToFloat64(submissions.WithLabelValues("priority", "accepted"))
	m.TrackSubmission("priority", "accepted")
	assert.Equal(t, before+1, testutil.ToFloat64(submissions.WithLabelValues("priority", "accepted")))

	m.SetQueueActive("creator-1", "priority", 4)
	assert.Equal(t, 4.0, testutil.ToFloat64(queueActive.WithLabelValues("creator-1", "priority")))
}
