// Package lcd provides a channel-based messaging system for HD44780 LCD displays.
//
// Example usage:
//
//	lcdMessages := make(chan lcd.Message, 10)
//	handler := lcd.NewHandler(&device, lcdMessages, logger)
//	go handler.Run()
//
//	// Send messages non-blocking
//	lcd.Send(lcdMessages, "ADC_value:", "3.2959(V)")
package lcd

import (
	"io"
	"log/slog"
)

const (
	Columns = 16
	Rows    = 2
)

// Device is the subset of an HD44780 driver the handler uses.
// *hd44780i2c.Device satisfies it.
type Device interface {
	ClearDisplay()
	SetCursor(col, row uint8)
	Print(data []byte)
}

// Message represents a two-line LCD message.
type Message struct {
	Line1 []byte
	Line2 []byte
}

// Handler processes LCD messages from a channel.
type Handler struct {
	device   Device
	messages <-chan Message
	logger   *slog.Logger
	rows     int
	columns  int
}

// NewHandler creates a new 16x2 LCD message handler.
func NewHandler(device Device, messages <-chan Message, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		device:   device,
		messages: messages,
		logger:   logger,
		rows:     Rows,
		columns:  Columns,
	}
}

// Run processes messages from the channel and updates the LCD until the
// channel is closed. Run should be called in a separate goroutine.
func (h *Handler) Run() {
	for msg := range h.messages {
		h.display(msg)
	}
	h.logger.Debug("lcd:messages closed")
}

// display prints msg to the LCD device.
func (h *Handler) display(msg Message) {
	h.device.ClearDisplay()
	h.device.SetCursor(0, 0)
	h.device.Print(truncate(msg.Line1, h.columns))
	h.device.SetCursor(0, 1)
	h.device.Print(truncate(msg.Line2, h.columns))
}

// truncate in place, no allocation
func truncate(line []byte, n int) []byte {
	if len(line) > n {
		return line[:n]
	}
	return line
}

// Send queues a status message without blocking. It reports false if the
// channel is full or nil and the message was dropped.
func Send(messages chan<- Message, line1, line2 string) bool {
	if messages == nil {
		return false
	}
	select {
	case messages <- Message{Line1: []byte(line1), Line2: []byte(line2)}:
		return true
	default:
		return false
	}
}
