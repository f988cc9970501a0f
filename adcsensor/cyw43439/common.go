// Package cyw43439 brings up Wi-Fi on a Pico W so readings can leave the
// board: it initializes the CYW43439, joins the network, configures the lneto
// stack over DHCP and pumps packets between the two.
//
// Setup is adapted from the soypat/cyw43439 examples:
// https://github.com/soypat/cyw43439/tree/main/examples/common
package cyw43439

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"runtime"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/x/xnet"
)

const mtu = cyw43439.MTU

// Config describes the network to join and how to address the board on it.
type Config struct {
	SSID     string
	Password string // Empty joins an open network.
	// Hostname is used for DHCP requests.
	Hostname string
	// RequestedAddr is the preferred DHCP address. If DHCP fails and it is
	// set, it is assigned statically.
	RequestedAddr netip.Addr
	// MaxTCPPorts is the number of TCP connections the stack can hold.
	MaxTCPPorts int
	Logger      *slog.Logger
}

// Stack couples the lneto stack to the CYW43439 link.
type Stack struct {
	s       xnet.StackAsync
	dev     *cyw43439.Device
	log     *slog.Logger
	sendbuf []byte
}

// Connect joins the configured network, retrying the join until it
// succeeds, and leaves the stack with an address assigned.
func Connect(cfg Config) (*Stack, error) {
	if cfg.Hostname == "" {
		return nil, errors.New("empty hostname")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)
	logger.Info("cyw43439:init")
	if err := dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
		return nil, errors.New("wifi init:" + err.Error())
	}
	logger.Info("cyw43439:init done", slog.Duration("duration", time.Since(start)))

	for {
		logger.Info("wifi:joining", slog.String("ssid", cfg.SSID), slog.Bool("open", cfg.Password == ""))
		err := dev.JoinWPA2(cfg.SSID, cfg.Password)
		if err == nil {
			break
		}
		logger.Error("wifi:join failed", slog.String("err", err.Error()))
		time.Sleep(5 * time.Second)
	}

	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, errors.New("get hardware address:" + err.Error())
	}
	logger.Info("wifi:joined", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	stack := &Stack{dev: dev, log: logger, sendbuf: make([]byte, mtu)}
	err = stack.s.Reset(xnet.StackConfig{
		Hostname:        cfg.Hostname,
		MaxTCPConns:     max(cfg.MaxTCPPorts, 1),
		RandSeed:        time.Since(start).Nanoseconds(),
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, errors.New("stack reset:" + err.Error())
	}
	dev.RecvEthHandle(func(pkt []byte) error {
		return stack.s.Demux(pkt, 0)
	})

	// DHCP needs packets flowing while it waits for replies.
	go stack.Run()
	if err := stack.dhcp(cfg.RequestedAddr); err != nil {
		return nil, err
	}
	return stack, nil
}

func (s *Stack) dhcp(requested netip.Addr) error {
	if !requested.IsValid() {
		requested = netip.AddrFrom4([4]byte{})
	}
	if !requested.Is4() {
		return errors.New("only dhcpv4 supported")
	}

	const pollTime = 50 * time.Millisecond
	rstack := s.s.StackRetrying(pollTime)

	s.log.Info("dhcp:starting")
	results, err := rstack.DoDHCPv4(requested.As4(), 3*time.Second, 3)
	if err != nil {
		if requested.IsUnspecified() {
			return errors.New("dhcp failed:" + err.Error())
		}
		s.log.Info("dhcp:incomplete, assigning static IP", slog.String("ip", requested.String()))
		s.s.SetIPAddr(requested)
		return nil
	}
	if err := s.s.AssimilateDHCPResults(results); err != nil {
		return errors.New("assimilate dhcp:" + err.Error())
	}

	gatewayHW, err := rstack.DoResolveHardwareAddress6(results.Router, 500*time.Millisecond, 4)
	if err != nil {
		return errors.New("resolve gateway:" + err.Error())
	}
	s.s.SetGateway6(gatewayHW)

	s.log.Info("dhcp:complete",
		slog.String("ourIP", results.AssignedAddr.String()),
		slog.String("router", results.Router.String()),
		slog.Uint64("lease_sec", uint64(results.TLease)),
	)
	return nil
}

// Run moves packets between the radio and the stack forever.
func (s *Stack) Run() {
	for {
		send, recv, _ := s.recvAndSend()
		if send == 0 && recv == 0 {
			// idle: let the sampler's display loop have the core
			time.Sleep(5 * time.Millisecond)
		}
		runtime.Gosched()
	}
}

func (s *Stack) recvAndSend() (send, recv int, err error) {
	gotPacket, errRecv := s.dev.PollOne()
	if gotPacket {
		recv = 1
	}
	if errRecv != nil {
		s.log.Error("cyw43439:poll", slog.String("err", errRecv.Error()))
	}

	send, err = s.s.Encapsulate(s.sendbuf, -1, 0)
	if err != nil {
		s.log.Error("stack:encapsulate", slog.Int("plen", send), slog.String("err", err.Error()))
		return send, recv, err
	}
	if send == 0 {
		return 0, recv, errRecv
	}
	if err = s.dev.SendEth(s.sendbuf[:send]); err != nil {
		s.log.Error("cyw43439:send", slog.Int("plen", send), slog.String("err", err.Error()))
	}
	return send, recv, err
}

// LnetoStack returns the underlying stack for TCP and DNS.
func (s *Stack) LnetoStack() *xnet.StackAsync {
	return &s.s
}

// Addr returns the current IP address of the stack.
func (s *Stack) Addr() netip.Addr {
	return s.s.Addr()
}
