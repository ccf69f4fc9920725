package common

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the TCP port the simulator accepts state connections on
	DefaultPort = 10112

	// DefaultDiscoveryPort is the UDP port the simulator broadcasts its session on
	DefaultDiscoveryPort = 15000
)

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// TransportConfig holds socket options applied to every connection
type TransportConfig struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	ReadBufferSize  int
	WriteBufferSize int
}

// ReconnectConfig controls the optional reconnect supervisor. It is disabled
// by default: a failed connection stays failed until Connect is called again.
type ReconnectConfig struct {
	Enabled        bool
	MaxAttempts    int // 0 means unlimited
	InitialDelayMs int
	MaxDelayMs     int
}

// ClientConfig holds all parameters of a protocol client
type ClientConfig struct {
	// Endpoint used by the CLI when no discovery is performed
	Endpoint string

	// TimeoutSecond bounds the dial, 0 means no limit
	TimeoutSecond int

	// IdleTimeoutSecond fails the connection when nothing was received for
	// this long, 0 disables the check
	IdleTimeoutSecond int

	// DebugChecks logs a warning when a message is sent to an id that is
	// missing from the manifest or has a different kind
	DebugChecks bool

	// MaxFrameSize bounds the payload size accepted from the remote
	MaxFrameSize int

	Reconnect ReconnectConfig
	Transport TransportConfig

	// Logging configuration
	LogLevel string
}

// DefaultClientConfig returns the configuration used when nothing else is set
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint:      net.JoinHostPort("127.0.0.1", strconv.Itoa(DefaultPort)),
		TimeoutSecond: 10,
		MaxFrameSize:  16 * 1024 * 1024,
		Reconnect: ReconnectConfig{
			InitialDelayMs: 250,
			MaxDelayMs:     10_000,
		},
		Transport: TransportConfig{
			TCPNoDelay: true,
		},
		LogLevel: "info",
	}
}

// String returns a formatted string representation of the configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client")
	addField("Endpoint", c.Endpoint)
	addField("Dial Timeout", formatSeconds(c.TimeoutSecond))
	addField("Idle Timeout", formatSeconds(c.IdleTimeoutSecond))
	addField("Debug Checks", strconv.FormatBool(c.DebugChecks))
	addField("Max Frame Size", fmt.Sprintf("%d bytes", c.MaxFrameSize))

	addSection("Reconnect")
	addField("Enabled", strconv.FormatBool(c.Reconnect.Enabled))
	if c.Reconnect.Enabled {
		attempts := "unlimited"
		if c.Reconnect.MaxAttempts > 0 {
			attempts = strconv.Itoa(c.Reconnect.MaxAttempts)
		}
		addField("Max Attempts", attempts)
		addField("Initial Delay", fmt.Sprintf("%d ms", c.Reconnect.InitialDelayMs))
		addField("Max Delay", fmt.Sprintf("%d ms", c.Reconnect.MaxDelayMs))
	}

	addSection("Transport")
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", formatSeconds(c.Transport.TCPKeepAliveSec))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Mock simulator configuration struct
// --------------------------------------------------------------------------

// MockConfig holds the parameters of the mock simulator server
type MockConfig struct {
	// Endpoint to listen on
	Endpoint string

	// Manifest text served to clients (`id,kind,name` lines)
	Manifest string

	// PushIntervalMs makes the server push every value to every client at
	// this interval, 0 disables pushing
	PushIntervalMs int

	// Transport options applied to accepted connections
	Transport TransportConfig

	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *MockConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Mock Simulator")
	addField("Endpoint", c.Endpoint)
	addField("Manifest Lines", strconv.Itoa(len(strings.FieldsFunc(c.Manifest, func(r rune) bool { return r == '\n' }))))
	if c.PushIntervalMs > 0 {
		addField("Push Interval", fmt.Sprintf("%d ms", c.PushIntervalMs))
	} else {
		addField("Push Interval", "disabled")
	}

	addSection("Transport")
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", formatSeconds(c.Transport.TCPKeepAliveSec))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func formatSeconds(sec int) string {
	if sec <= 0 {
		return "disabled"
	}
	return fmt.Sprintf("%d sec", sec)
}
