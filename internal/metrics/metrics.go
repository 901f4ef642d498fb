package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruiter_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recruiter_discovery_sweep_duration_seconds",
			Help:    "Duration of each discovery sweep in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 120},
		},
	)
	DispatchStepDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "recruiter_dispatch_step_duration_seconds",
			Help:       "Duration of each step in the dispatch process.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
	OffersSentCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recruiter_offers_sent_total",
			Help: "Total number of offers issued to workers.",
		},
	)
	OffersAcceptedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recruiter_offers_accepted_total",
			Help: "Total number of offers accepted by workers.",
		},
	)
	OffersDeclinedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recruiter_offers_declined_total",
			Help: "Total number of offers declined by workers.",
		},
	)
	OffersTimedOutCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recruiter_offers_timed_out_total",
			Help: "Total number of offers that expired without a response.",
		},
	)
	RecruitingPausedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recruiter_recruiting_paused_total",
			Help: "Total number of times recruiting paused for lack of eligible workers.",
		},
	)
)

func StartMetricsServer() {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(SweepDuration)
	prometheus.MustRegister(DispatchStepDuration)
	prometheus.MustRegister(OffersSentCounter)
	prometheus.MustRegister(OffersAcceptedCounter)
	prometheus.MustRegister(OffersDeclinedCounter)
	prometheus.MustRegister(OffersTimedOutCounter)
	prometheus.MustRegister(RecruitingPausedCounter)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(":8080", nil))
	}()
}
