package transport

import (
	"github.com/ValentinKolb/dht/rpc/common"
	"io"
	"net"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received.
// It is called concurrently, also for requests arriving on the same connection.
type ServerHandleFunc func(req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen creates a listener for config.Endpoint and serves it (see Serve)
	Listen(config common.ServerConfig) error
	// Serve accepts connections on the listener until the transport is closed.
	// Accept errors are logged and do not stop the loop.
	Serve(listener net.Listener, config common.ServerConfig) error
	// Addr returns the address of the listener or nil if the transport is not serving
	Addr() net.Addr
	// WriteMetrics writes the transport metrics in prometheus text format
	WriteMetrics(w io.Writer)
	// Close stops accepting connections and closes all open connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response
	Send(req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
