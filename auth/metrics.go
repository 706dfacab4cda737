package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics counts flow outcomes
type Metrics struct {
	challengeFetch *prometheus.CounterVec
	login          *prometheus.CounterVec
	logout         prometheus.Counter
	loginDuration  prometheus.Histogram
}

// NewMetrics registers the flow metrics on reg, the default registerer when nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		challengeFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prism_auth_challenge_fetch_total",
			Help: "Challenge fetches by result",
		}, []string{"result"}),
		login: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prism_auth_login_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		logout: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prism_auth_logout_total",
			Help: "Logouts",
		}),
		loginDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prism_auth_login_duration_seconds",
			Help:    "Time from sign request to stored token",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.challengeFetch, m.login, m.logout, m.loginDuration)
	return m
}

func (m *Metrics) observeChallenge(err error) {
	if m == nil {
		return
	}
	m.challengeFetch.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) observeLogin(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.login.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.loginDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) incLogout() {
	if m == nil {
		return
	}
	m.logout.Inc()
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
