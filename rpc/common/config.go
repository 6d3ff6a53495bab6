package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	// DefaultMaxChannelsPerAddr is the number of simultaneous channels allowed per originating address
	DefaultMaxChannelsPerAddr = 2
	// DefaultMaxActiveChannels is the number of channels that are served at the same time
	DefaultMaxActiveChannels = 10
	// DefaultMaxCallsPerChannel is the number of calls that are processed concurrently on one channel
	DefaultMaxCallsPerChannel = 64
)

// --------------------------------------------------------------------------
// Socket configuration structs (shared by server and client)
// --------------------------------------------------------------------------

// SocketConf holds settings that apply to all stream sockets
type SocketConf struct {
	WriteBufferSize int // in bytes, 0 keeps the os default
	ReadBufferSize  int // in bytes, 0 keeps the os default
}

// TCPConf holds tcp specific socket settings
type TCPConf struct {
	TCPNoDelay   bool
	TCPLingerSec int // negative keeps the os default
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the RPC server.
type ServerConfig struct {
	// Endpoint is the address the server listens on (host:port or socket path)
	Endpoint string

	// Admission control
	MaxChannelsPerAddr int // 0 disables the per address limit
	MaxActiveChannels  int // 0 disables the global limit

	// Channel settings
	MaxCallsPerChannel int
	MaxFrameBytes      uint64 // 0 means frames of any length are accepted
	TimeoutSecond      int64  // idle timeout of a channel, 0 disables it

	// Socket settings
	SocketConf SocketConf
	TCPConf    TCPConf

	// MetricsEndpoint is the address of the prometheus metrics endpoint (empty = disabled)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// DefaultServerConfig returns a server configuration with all limits set to their defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Endpoint:           "[::1]:8080",
		MaxChannelsPerAddr: DefaultMaxChannelsPerAddr,
		MaxActiveChannels:  DefaultMaxActiveChannels,
		MaxCallsPerChannel: DefaultMaxCallsPerChannel,
		TCPConf:            TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		LogLevel:           "info",
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	limit := func(v int) string {
		if v <= 0 {
			return "unlimited"
		}
		return strconv.Itoa(v)
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	if c.TimeoutSecond > 0 {
		addField("Idle Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	} else {
		addField("Idle Timeout", "none")
	}
	if c.MaxFrameBytes > 0 {
		addField("Max Frame Size", fmt.Sprintf("%d bytes", c.MaxFrameBytes))
	} else {
		addField("Max Frame Size", "unlimited")
	}

	// Admission control
	addSection("Admission")
	addField("Channels Per Address", limit(c.MaxChannelsPerAddr))
	addField("Active Channels", limit(c.MaxActiveChannels))
	addField("Calls Per Channel", strconv.Itoa(int(math.Max(1, float64(c.MaxCallsPerChannel)))))

	// Metrics
	if c.MetricsEndpoint != "" {
		addSection("Metrics")
		addField("Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the transport specific part of the client configuration
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf             SocketConf
	TCPConf                TCPConf
}

// ClientConfig holds all configuration parameters for RPC clients
type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
