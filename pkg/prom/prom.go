package prom

import (
	"sync"

	xhttp "github.com/nimasrn/review-runner/pkg/http"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemReviewRequests = "review_request"
	SystemTracking       = "tracking"
)

const (
	MetricDispatchTotal    = "dispatch_total"
	MetricDispatchDuration = "dispatch_duration_seconds"
	MetricClicksTotal      = "clicks_total"
	MetricUnsubscribeTotal = "unsubscribe_total"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

func Create(host string, env string, nameSpace string) error {
	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemReviewRequests, MetricDispatchTotal, []string{"channel", "outcome"}))
	hasError(createHistogramVec(SystemReviewRequests, MetricDispatchDuration, []string{"channel"}))
	hasError(createCounterVec(SystemTracking, MetricClicksTotal, []string{"channel"}))
	hasError(createCounterVec(SystemTracking, MetricUnsubscribeTotal, []string{"channel"}))

	return err
}

// ListenAndServer blocks serving the default registry on addr.
func ListenAndServer(addr string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Error("[metrics-server] http listen error", "error", err)
	}
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        "",
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	return prometheus.Register(MetricCollectionHistogramVec[subsystem+name])
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	lockCreateMetricLock.Lock()
	v, ok := MetricCollectionCounterVec[subsystem+name]
	lockCreateMetricLock.Unlock()
	if ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	lockCreateMetricLock.Lock()
	v, ok := MetricCollectionHistogramVec[subsystem+name]
	lockCreateMetricLock.Unlock()
	if ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func RecordDispatch(channel, outcome string, seconds float64) {
	IncCounterVec(SystemReviewRequests, MetricDispatchTotal, channel, outcome)
	AddHistogramVec(SystemReviewRequests, MetricDispatchDuration, seconds, channel)
}

func RecordClick(channel string) {
	IncCounterVec(SystemTracking, MetricClicksTotal, channel)
}

func RecordUnsubscribe(channel string) {
	IncCounterVec(SystemTracking, MetricUnsubscribeTotal, channel)
}
