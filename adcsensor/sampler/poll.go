package sampler

// PollingConverter is a Converter whose completion can be busy-waited on.
type PollingConverter interface {
	Converter
	// Busy reports whether a triggered conversion is still running.
	Busy() bool
}

// Poller takes blocking single conversions without interrupts or a history
// buffer. Each reading averages fresh conversions only.
type Poller struct {
	Conv PollingConverter
}

// Read triggers one conversion and waits for its result.
func (p Poller) Read() Sample {
	p.Conv.Start()
	for p.Conv.Busy() {
	}
	return p.Conv.Result()
}

// Prime takes and discards one conversion. The first result after enabling
// the converter is unreliable.
func (p Poller) Prime() { p.Read() }

// Average takes n fresh conversions and returns their mean, truncated.
func (p Poller) Average(n int) Sample {
	if n < 1 {
		return 0
	}
	var sum uint32
	for i := 0; i < n; i++ {
		sum += uint32(p.Read())
	}
	return Sample(sum / uint32(n))
}
