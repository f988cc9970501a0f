package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

func testOptions() options {
	return options{
		depth:       4,
		strategy:    sampler.StrategyShift,
		consistency: sampler.AtomicSwap,
		window:      sampler.WindowFull,
		rate:        1000,
		delay:       time.Millisecond,
		signal:      signalRamp,
		vref:        5,
		bits:        10,
	}
}

func newTestSimulation(t *testing.T, opts options) *simulation {
	t.Helper()
	sim, err := newSimulation(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.sampler.Configure(); err != nil {
		t.Fatal(err)
	}
	return sim
}

func TestParseFlags(t *testing.T) {
	if s, err := parseStrategy("ring"); err != nil || s != sampler.StrategyRing {
		t.Errorf("ring: %v %v", s, err)
	}
	if _, err := parseStrategy("heap"); err == nil {
		t.Error("expected error for unknown strategy")
	}
	for name, want := range map[string]sampler.Consistency{
		"relaxed":  sampler.Relaxed,
		"critical": sampler.CriticalSection,
		"swap":     sampler.AtomicSwap,
	} {
		if got, err := parseConsistency(name); err != nil || got != want {
			t.Errorf("%s: %v %v", name, got, err)
		}
	}
	if _, err := parseConsistency("locked"); err == nil {
		t.Error("expected error for unknown consistency")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*options)
	}{
		{"depth", func(o *options) { o.depth = 0 }},
		{"rate zero", func(o *options) { o.rate = 0 }},
		{"rate high", func(o *options) { o.rate = maxRate + 1 }},
		{"delay", func(o *options) { o.delay = 0 }},
		{"bits", func(o *options) { o.bits = 17 }},
		{"vref", func(o *options) { o.vref = -1 }},
		{"signal", func(o *options) { o.signal = "square" }},
	}
	if err := testOptions().validate(); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}
	for _, tt := range tests {
		o := testOptions()
		tt.modify(&o)
		if err := o.validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestSignalRampWraps(t *testing.T) {
	g := newSignal(signalRamp, 3, 1)
	var got []sampler.Sample
	for i := 0; i < 6; i++ {
		got = append(got, g.next())
	}
	want := []sampler.Sample{0, 1, 2, 3, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSignalSineStaysInRange(t *testing.T) {
	g := newSignal(signalSine, 1023, 7)
	for i := 0; i < 5000; i++ {
		if v := g.next(); v > 1023 {
			t.Fatalf("sample %d = %d out of range", i, v)
		}
	}
}

func TestClockOnlyCompletesTriggeredConversions(t *testing.T) {
	conv := &converter{gen: newSignal(signalConst, 1023, 1)}
	fired := 0
	c := &clock{conv: conv, line: &irqLine{}, isr: func() { fired++ }}

	c.tick()
	if fired != 0 || c.missed.Load() != 1 {
		t.Fatalf("untriggered tick fired=%d missed=%d", fired, c.missed.Load())
	}
	conv.Start()
	c.tick()
	c.tick()
	if fired != 1 || c.missed.Load() != 2 {
		t.Errorf("fired=%d missed=%d, want 1 and 2", fired, c.missed.Load())
	}
	if conv.Result() != 511 {
		t.Errorf("result = %d, want 511", conv.Result())
	}
}

func TestSimulationKeepsRamp(t *testing.T) {
	for _, consistency := range []sampler.Consistency{sampler.Relaxed, sampler.CriticalSection, sampler.AtomicSwap} {
		opts := testOptions()
		opts.consistency = consistency
		sim := newTestSimulation(t, opts)
		for i := 0; i < 7; i++ {
			sim.clock.tick()
		}

		r := sim.step()
		snap := sim.monitor.snapshot()
		if want := []sampler.Sample{6, 5, 4, 3}; !equalSamples(snap, want) {
			t.Errorf("%v: history %v, want %v", consistency, snap, want)
		}
		if sim.monitor.torn.Load() != 0 {
			t.Errorf("%v: sequential reads counted as torn", consistency)
		}
		if r.Newest != 6 || r.Conversions != 7 {
			t.Errorf("%v: reading %+v", consistency, r)
		}
		if got := sim.conv.selects.Load(); got != 7 {
			t.Errorf("%v: channel re-selected %d times, want 7", consistency, got)
		}
	}
}

func TestTornRamp(t *testing.T) {
	tests := []struct {
		h    []sampler.Sample
		torn bool
	}{
		{[]sampler.Sample{4, 3, 2, 1}, false},
		{[]sampler.Sample{1, 0, 1023, 1022}, false},
		{[]sampler.Sample{4, 3, 3, 2}, true},
		{[]sampler.Sample{5, 3, 2, 1}, true},
		{[]sampler.Sample{7}, false},
	}
	for _, tt := range tests {
		if got := tornRamp(tt.h, 1024); got != tt.torn {
			t.Errorf("tornRamp(%v) = %v, want %v", tt.h, got, tt.torn)
		}
	}
}

func TestMonitorIgnoresColdBuffer(t *testing.T) {
	sim := newTestSimulation(t, testOptions())
	sim.clock.tick()
	sim.clock.tick()
	sim.step() // [1 0 0 0] breaks the ramp but the buffer is not full yet
	if sim.monitor.torn.Load() != 0 {
		t.Error("cold buffer counted as torn")
	}
}

func TestIRQLineDefersWhileMasked(t *testing.T) {
	line := &irqLine{}
	ran := make(chan struct{})

	st := line.Disable()
	go line.fire(func() { close(ran) })
	select {
	case <-ran:
		t.Fatal("handler ran while masked")
	case <-time.After(20 * time.Millisecond):
	}
	line.Restore(st)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("handler did not run after restore")
	}
}

func TestRouter(t *testing.T) {
	sim := newTestSimulation(t, testOptions())
	for i := 0; i < 5; i++ {
		sim.clock.tick()
	}
	sim.step()
	srv := httptest.NewServer(newRouter(sim))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/history")
	if err != nil {
		t.Fatal(err)
	}
	var h historyResponse
	err = json.NewDecoder(resp.Body).Decode(&h)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if h.Depth != 4 || h.Consistency != "swap" || h.Conversions != 5 {
		t.Errorf("history response %+v", h)
	}
	if len(h.Samples) != 4 || h.Samples[0] != 4 {
		t.Errorf("samples %v", h.Samples)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, name := range []string{
		"adcsim_conversions_total 5",
		"adcsim_display_cycles_total 1",
		"adcsim_torn_reads_total 0",
		"adcsim_history_reads_total 1",
		"adcsim_voltage_volts",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics missing %q", name)
		}
	}

	resp, err = http.Post(srv.URL+"/history", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /history = %d", resp.StatusCode)
	}
}

func TestModelCycle(t *testing.T) {
	sim := newTestSimulation(t, testOptions())
	for i := 0; i < 4; i++ {
		sim.clock.tick()
	}
	var m tea.Model = newModel(sim)
	if got := m.View(); !strings.Contains(got, "Starting") {
		t.Errorf("view before size: %q", got)
	}

	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m, cmd := m.Update(CycleMsg(time.Now()))
	if cmd == nil {
		t.Error("cycle did not schedule the next one")
	}
	mm := m.(model)
	if mm.reading.Conversions != 4 || len(mm.history) != 4 {
		t.Errorf("reading %+v history %v", mm.reading, mm.history)
	}
	view := m.View()
	for _, want := range []string{"ADCSIM", "depth=4", "shift/swap", "torn 0"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}

func TestSparkline(t *testing.T) {
	// newest first in, oldest first out
	got := sparkline([]sampler.Sample{7, 0, 3}, 10)
	if got != "▄▁█" {
		t.Errorf("got %q", got)
	}
	if got := sparkline([]sampler.Sample{5, 5}, 10); got != "▁▁" {
		t.Errorf("flat: got %q", got)
	}
	if got := sparkline([]sampler.Sample{3, 2, 1, 0}, 2); got != "▁█" {
		t.Errorf("clipped: got %q", got)
	}
	if sparkline(nil, 10) != "" {
		t.Error("empty history")
	}
}

func equalSamples(a, b []sampler.Sample) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
