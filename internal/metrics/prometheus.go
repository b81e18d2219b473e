//go:build !noprom

package metrics

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	games        *prom.CounterVec
	questions    *prom.HistogramVec
	storeTotal   *prom.CounterVec
	storeSeconds *prom.HistogramVec
}

func (p *promRecorder) IncGame(outcome string) {
	p.games.WithLabelValues(outcome).Inc()
}

func (p *promRecorder) ObserveQuestions(outcome string, n int) {
	p.questions.WithLabelValues(outcome).Observe(float64(n))
}

func (p *promRecorder) IncStoreOp(op string, success bool) {
	p.storeTotal.WithLabelValues(op, strconv.FormatBool(success)).Inc()
}

func (p *promRecorder) ObserveStoreSeconds(op string, success bool, seconds float64) {
	p.storeSeconds.WithLabelValues(op, strconv.FormatBool(success)).Observe(seconds)
}

func newPromRecorder(registry *prom.Registry) *promRecorder {
	p := &promRecorder{
		games: prom.NewCounterVec(prom.CounterOpts{
			Name: "genie_games_total",
			Help: "Total number of finished games by outcome",
		}, []string{"outcome"}),
		questions: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "genie_questions_per_game",
			Help:    "Questions answered before a game finished",
			Buckets: prom.LinearBuckets(1, 1, 10),
		}, []string{"outcome"}),
		storeTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "genie_store_ops_total",
			Help: "Total number of knowledge base load/save operations",
		}, []string{"op", "success"}),
		storeSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "genie_store_op_seconds",
			Help:    "Knowledge base operation duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"op", "success"}),
	}
	registry.MustRegister(p.games, p.questions, p.storeTotal, p.storeSeconds)
	return p
}

func newMux(registry *prom.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func enablePrometheus(addr string) error {
	registry := prom.NewRegistry()
	p := newPromRecorder(registry)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	SetRecorder(p)
	go func() { _ = http.Serve(ln, newMux(registry)) }()
	return nil
}
