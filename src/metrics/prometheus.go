// Package metrics contains support for reporting globwalk's own runtime metrics
// (DFA construction cost, directories pruned) to a Prometheus pushgateway.
// Because a globwalk invocation is a transient process we can't wait around
// for Prometheus to scrape us, we've got to push to them, same as the
// teacher's build-target metrics did.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("metrics")

// maxErrors is the number of consecutive push failures after which we stop trying.
const maxErrors = 3

type metrics struct {
	url     string
	ticker  *time.Ticker
	newData bool
	errors  int
	pushes  int

	dfaStates       prometheus.Gauge
	dfaBuildSeconds prometheus.Histogram
	dfaDegraded     prometheus.Counter
	dirsVisited     prometheus.Counter
	dirsPruned      prometheus.Counter
	entriesMatched  prometheus.Counter

	registry *prometheus.Registry
}

// m is the singleton metrics instance; nil until InitPushGateway is called.
var m *metrics

var buildBuckets = []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 10}

// InitPushGateway starts pushing metrics to the given pushgateway URL on the given frequency.
// It is a no-op if url is empty, matching the teacher's opt-in-by-config behaviour.
func InitPushGateway(url string, frequency time.Duration) {
	if url == "" {
		return
	}
	m = initMetrics(url, frequency)
}

func initMetrics(url string, frequency time.Duration) *metrics {
	m := &metrics{
		url:      url,
		ticker:   time.NewTicker(frequency),
		registry: prometheus.NewRegistry(),
	}
	m.dfaStates = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globwalk_prefix_dfa_states",
		Help: "Number of states in the most recently built prefix DFA",
	})
	m.dfaBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "globwalk_dfa_build_seconds",
		Help:    "Time taken to build the prefix DFA for a glob set",
		Buckets: buildBuckets,
	})
	m.dfaDegraded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globwalk_dfa_degraded_total",
		Help: "Count of glob sets whose DFA exceeded the size budget and fell back to visiting everything",
	})
	m.dirsVisited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globwalk_directories_visited_total",
		Help: "Count of directories the walker opened",
	})
	m.dirsPruned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globwalk_directories_pruned_total",
		Help: "Count of directories skipped because no descendant could match",
	})
	m.entriesMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globwalk_entries_matched_total",
		Help: "Count of entries yielded because they matched a glob",
	})
	m.registry.MustRegister(m.dfaStates, m.dfaBuildSeconds, m.dfaDegraded, m.dirsVisited, m.dirsPruned, m.entriesMatched)
	go m.keepPushing()
	return m
}

// RecordDFABuild records the outcome of a single PrefixDFA construction.
func RecordDFABuild(states int, built bool, d time.Duration) {
	if m == nil {
		return
	}
	m.dfaBuildSeconds.Observe(d.Seconds())
	m.newData = true
	if !built {
		m.dfaDegraded.Inc()
		return
	}
	m.dfaStates.Set(float64(states))
}

// RecordWalk records one walker pass over a tree.
func RecordWalk(visited, pruned, matched int) {
	if m == nil {
		return
	}
	m.dirsVisited.Add(float64(visited))
	m.dirsPruned.Add(float64(pruned))
	m.entriesMatched.Add(float64(matched))
	m.newData = true
}

// Stop shuts down the metrics pusher and flushes anything outstanding.
func Stop() {
	if m != nil {
		m.stop()
	}
}

func (m *metrics) stop() {
	m.ticker.Stop()
	m.errors = m.pushMetrics()
}

func (m *metrics) keepPushing() {
	for range m.ticker.C {
		m.errors = m.pushMetrics()
		if m.errors >= maxErrors {
			log.Warning("Metrics don't seem to be working, giving up")
			return
		}
	}
}

func (m *metrics) pushMetrics() int {
	if !m.newData {
		return m.errors
	}
	start := time.Now()
	m.newData = false
	if err := deadline(func() error {
		return push.New(m.url, "globwalk").Gatherer(m.registry).Push()
	}, 10*time.Second); err != nil {
		log.Warning("Could not push metrics to %s: %s", m.url, err)
		m.newData = true
		return m.errors + 1
	}
	m.pushes++
	log.Debug("Push #%d of metrics in %0.3fs", m.pushes, time.Since(start).Seconds())
	return 0
}

// deadline applies a deadline to an arbitrary function and returns when either the function
// completes or the deadline expires.
func deadline(f func() error, timeout time.Duration) error {
	c := make(chan error, 1)
	go func() {
		c <- f()
	}()
	select {
	case err := <-c:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("metrics push timed out")
	}
}
