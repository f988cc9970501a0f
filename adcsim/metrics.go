package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry
	cycles   prometheus.Counter
	voltage  prometheus.Gauge
}

func newMetrics(sim *simulation) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adcsim_display_cycles_total",
			Help: "Display consumer cycles run.",
		}),
		voltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adcsim_voltage_volts",
			Help: "Last averaged reading.",
		}),
	}
	m.registry.MustRegister(
		m.cycles,
		m.voltage,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "adcsim_conversions_total",
			Help: "Conversions recorded by the interrupt handler.",
		}, func() float64 { return float64(sim.sampler.Conversions()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "adcsim_missed_conversions_total",
			Help: "Clock ticks with no conversion in flight.",
		}, func() float64 { return float64(sim.clock.missed.Load()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "adcsim_history_reads_total",
			Help: "History snapshots taken by the display consumer.",
		}, func() float64 { return float64(sim.monitor.reads.Load()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "adcsim_torn_reads_total",
			Help: "Ramp snapshots that observed a partially shifted buffer.",
		}, func() float64 { return float64(sim.monitor.torn.Load()) }),
	)
	return m
}

type historyResponse struct {
	Depth       int      `json:"depth"`
	Strategy    string   `json:"strategy"`
	Consistency string   `json:"consistency"`
	Conversions uint32   `json:"conversions"`
	Samples     []uint16 `json:"samples"` // newest first
}

func newRouter(sim *simulation) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(sim.metrics.registry, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
	r.HandleFunc("/history", func(w http.ResponseWriter, req *http.Request) {
		snap := sim.monitor.snapshot()
		resp := historyResponse{
			Depth:       sim.sampler.Depth(),
			Strategy:    sim.opts.strategy.String(),
			Consistency: sim.opts.consistency.String(),
			Conversions: sim.sampler.Conversions(),
			Samples:     make([]uint16, len(snap)),
		}
		for i, v := range snap {
			resp.Samples[i] = uint16(v)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			sim.logger.Error("http:encode history", "err", err)
		}
	}).Methods(http.MethodGet)
	return r
}
