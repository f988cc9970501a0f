//go:build rp2040

package main

import (
	"time"

	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

const (
	hostname    = "adcsensor"
	mqttClient  = "tinygo-adcsensor"
	displayRate = 250 * time.Millisecond

	// 48 MHz / 48000 = 1 kHz sampling. The history then spans 64 ms.
	adcPrescaler = 48000 - 1
	adcChannel   = 0
	historyDepth = sampler.DefaultDepth

	// TCPBufSize is MTU - ethhdr - iphdr - tcphdr.
	tcpBufSize = 2030
)

// Set with -ldflags "-X main.ssid=... -X main.pass=... -X main.broker=host:port".
// Publishing is skipped when ssid is empty.
var (
	ssid     string
	pass     string
	broker   = "10.0.0.9:1883"
	mqttUser string
	mqttPass string
)
