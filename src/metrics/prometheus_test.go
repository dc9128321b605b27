package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

const testURL = "http://localhost:9999"
const verySlow = 10000000 * time.Second // so the ticker never actually fires during the test

func TestNoMetrics(t *testing.T) {
	m := initMetrics(testURL, verySlow)
	assert.Equal(t, 0, m.errors)
	assert.Equal(t, 0, m.pushes)
	m.stop()
	assert.Equal(t, 0, m.errors, "stop should not push when there's nothing new")
}

func TestRecordDFABuild(t *testing.T) {
	m = initMetrics(testURL, verySlow)
	RecordDFABuild(42, true, time.Millisecond)
	assert.True(t, m.newData)
	m.stop()
	assert.Equal(t, 1, m.errors, "stop should push once more when there's new data, and fail since nothing is listening")
}

func TestRecordDFABuildDegraded(t *testing.T) {
	m = initMetrics(testURL, verySlow)
	RecordDFABuild(0, false, time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dfaDegraded))
}

func TestRecordWalk(t *testing.T) {
	m = initMetrics(testURL, verySlow)
	RecordWalk(10, 4, 6)
	assert.True(t, m.newData)
}

func TestPushAttempts(t *testing.T) {
	m = initMetrics(testURL, time.Millisecond)
	RecordWalk(1, 0, 1)
	time.Sleep(50 * time.Millisecond)
	assert.GreaterOrEqual(t, m.errors, 1)
}
