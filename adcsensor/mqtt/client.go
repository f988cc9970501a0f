// Package mqtt publishes averaged sampler readings to an MQTT broker over the
// lneto TCP/IP stack.
package mqtt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"runtime"
	"time"

	"github.com/harveysanders/picosampler/adcsensor/display"
	"github.com/harveysanders/picosampler/adcsensor/lcd"
	"github.com/soypat/lneto/tcp"
	"github.com/soypat/lneto/x/xnet"
	mqtt "github.com/soypat/natiu-mqtt"
)

const (
	DefaultTopic             = "sensors/adc/average"
	defaultHeartbeatInterval = 30 * time.Second
)

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

type Client struct {
	ID                string
	Topic             string // Defaults to DefaultTopic.
	Timeout           time.Duration
	TCPBufSize        int
	Logger            *slog.Logger
	HeartbeatInterval time.Duration
	Username          string // MQTT broker username (optional)
	Password          string // MQTT broker password (optional, requires Username)
}

// ConnectAndPublish connects to the MQTT broker and publishes readings until
// the process ends, reconnecting whenever the session drops. It only returns
// on errors that retrying cannot fix.
func (c *Client) ConnectAndPublish(
	stack *xnet.StackAsync,
	addr string,
	readings <-chan display.Reading,
	lcdMessages chan<- lcd.Message,
) error {
	const pollTime = 5 * time.Millisecond

	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	c.Logger.Info("MQTT address: " + addr)

	mqttHost, portStr, err := splitHostPort(addr)
	if err != nil {
		return errors.New("parsing host:port from " + addr + ": " + err.Error())
	}
	port := parsePort(portStr)
	if port == 0 {
		return errors.New("invalid port in " + addr)
	}

	rstack := stack.StackRetrying(pollTime)

	// Try to parse as IP first, otherwise DNS lookup
	var mqttAddr netip.Addr
	if parsedAddr, err := netip.ParseAddr(mqttHost); err == nil {
		mqttAddr = parsedAddr
	} else {
		c.Logger.Info("dns:resolving " + mqttHost)
		addrs, err := rstack.DoLookupIP(mqttHost, 5*time.Second, 3)
		if err != nil {
			return errors.New("dns lookup for " + mqttHost + ": " + err.Error())
		}
		if len(addrs) == 0 {
			return errors.New("dns lookup for " + mqttHost + ": no addresses returned")
		}
		mqttAddr = addrs[0]
	}
	c.Logger.Info("resolved IP: " + mqttAddr.String())

	cfg := mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 4096)},
		OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			c.Logger.Info("received message", slog.String("topic", string(varPub.TopicName)))
			return nil
		},
	}
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(c.ID))
	if c.Username != "" {
		varconn.Username = []byte(c.Username)
		if c.Password != "" {
			varconn.Password = []byte(c.Password)
		}
	}
	mqttClient := mqtt.NewClient(cfg)

	var conn tcp.Conn
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, c.TCPBufSize),
		TxBuf:             make([]byte, c.TCPBufSize),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return errors.New("tcp configure:" + err.Error())
	}

	closeConn := func(reason string) {
		c.Logger.Error("tcpconn:closing", slog.String("reason", reason))
		conn.Close()
		for i := 0; i < 50 && !conn.State().IsClosed(); i++ {
			time.Sleep(100 * time.Millisecond)
		}
		conn.Abort()
	}

	serverAddr := netip.AddrPortFrom(mqttAddr, port)
	pubVar := mqtt.VariablesPublish{TopicName: []byte(topic)}

	for {
		localPort := uint16(stack.Prand32()>>17) + 1024
		c.Logger.Info("socket:dialing", slog.Uint64("localPort", uint64(localPort)))
		lcd.Send(lcdMessages, "Connecting...", "TCP handshake")
		err = rstack.DoDialTCP(&conn, localPort, serverAddr, 10*time.Second, 3)
		if err != nil {
			c.Logger.Error("socket:dial-failed", slog.String("err", err.Error()))
			closeConn("dial failed: " + err.Error())
			time.Sleep(2 * time.Second)
			continue
		}
		c.Logger.Info("tcp:connected", slog.String("state", conn.State().String()))

		lcd.Send(lcdMessages, "MQTT Connect", "Authenticating")
		conn.SetDeadline(time.Now().Add(c.Timeout))
		err = mqttClient.StartConnect(&conn, &varconn)
		if err != nil {
			c.Logger.Error("mqtt:start-connect-failed", slog.String("reason", err.Error()))
			lcd.Send(lcdMessages, "Connect Failed", clip(err.Error(), lcd.Columns))
			closeConn("connect failed")
			continue
		}
		for retries := 50; retries > 0 && !mqttClient.IsConnected(); retries-- {
			time.Sleep(100 * time.Millisecond)
			if err := mqttClient.HandleNext(); err != nil {
				c.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
			}
		}
		if !mqttClient.IsConnected() {
			c.Logger.Error("mqtt:connect-failed", slog.Any("reason", mqttClient.Err()))
			lcd.Send(lcdMessages, "Connect Failed", "Timed out")
			closeConn("connect timed out")
			continue
		}

		lcd.Send(lcdMessages, "MQTT Connected", "Publishing...")
		c.publishLoop(mqttClient, &conn, stack, pubVar, readings)

		c.Logger.Error("mqtt:disconnected", slog.Any("reason", mqttClient.Err()))
		lcd.Send(lcdMessages, "Disconnected", "Reconnecting...")
		closeConn("disconnected")
		runtime.Gosched()
	}
}

// publishLoop forwards readings while the session is up.
func (c *Client) publishLoop(
	mqttClient *mqtt.Client,
	conn *tcp.Conn,
	stack *xnet.StackAsync,
	pubVar mqtt.VariablesPublish,
	readings <-chan display.Reading,
) {
	heartbeat := time.NewTicker(c.HeartbeatInterval)
	defer heartbeat.Stop()

	for mqttClient.IsConnected() {
		select {
		case reading := <-readings:
			payload, err := encodeReading(reading)
			if err != nil {
				c.Logger.Error("mqtt:marshal-failed", slog.Any("reason", err))
				continue
			}
			conn.SetDeadline(time.Now().Add(c.Timeout))
			pubVar.PacketIdentifier = uint16(stack.Prand32())
			err = mqttClient.PublishPayload(pubFlags, pubVar, payload)
			if err != nil {
				c.Logger.Error("mqtt:publish-failed", slog.Any("reason", err))
				continue
			}
			c.Logger.Debug("published reading",
				slog.Uint64("packetID", uint64(pubVar.PacketIdentifier)),
				slog.Float64("volts", float64(reading.Voltage)),
			)
			if err := mqttClient.HandleNext(); err != nil {
				c.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
			}
		case <-heartbeat.C:
			// No readings for a whole interval: service the connection so the
			// broker keeps it alive.
			if err := mqttClient.HandleNext(); err != nil {
				c.Logger.Error("mqtt:handle-next-failed", slog.String("err", err.Error()))
			}
		default:
			// TinyGo runs goroutines on one core; yield so the display loop runs.
			// https://tinygo.org/docs/guides/tips-n-tricks/
			runtime.Gosched()
		}
	}
}

func encodeReading(r display.Reading) ([]byte, error) {
	return json.Marshal(r)
}

func clip(s string, n int) string {
	return s[:min(len(s), n)]
}

// splitHostPort splits a host:port string into separate host and port components.
// Returns an error if the format is invalid.
func splitHostPort(addr string) (host, port string, err error) {
	// Find the last colon to support IPv6 addresses
	colonIdx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			colonIdx = i
			break
		}
	}
	if colonIdx == -1 {
		return "", "", errors.New("missing port in address")
	}

	host = addr[:colonIdx]
	port = addr[colonIdx+1:]
	if host == "" {
		return "", "", errors.New("empty host")
	}
	if port == "" {
		return "", "", errors.New("empty port")
	}
	return host, port, nil
}

// parsePort converts a port string to uint16.
// Returns 0 if parsing fails or the value does not fit.
func parsePort(portStr string) uint16 {
	var port uint32
	for i := 0; i < len(portStr); i++ {
		if portStr[i] < '0' || portStr[i] > '9' {
			return 0
		}
		port = port*10 + uint32(portStr[i]-'0')
		if port > 0xffff {
			return 0
		}
	}
	return uint16(port)
}
