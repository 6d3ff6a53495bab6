package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dht/rpc/common"
	"github.com/ValentinKolb/dht/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// ErrNotSent marks errors that happened before a request was written to a connection.
// Only such requests are retried, a request that reached the server is never sent twice.
var ErrNotSent = errors.New("request not sent")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection based on the provided configuration
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single net connection.
// The connection is (re)established lazily, a broken connection is dropped by its reader.
type clientConnection struct {
	conn         net.Conn // nil while disconnected
	endpoint     string
	requestChans *xsync.MapOf[uint64, chan responseResult]
	connMu       sync.Mutex // Protects the connection itself and serializes writes
	parent       *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex uint64      // Atomic counter for Round Robin
	nextRequestID uint64      // Atomic counter for unique request IDs
	stopping      atomic.Bool // Signals shutdown
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()

	// Store the config
	t.config = config
	t.stopping.Store(false)

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := 1
	if config.Transport.ConnectionsPerEndpoint > 0 {
		connectionsPerEP = config.Transport.ConnectionsPerEndpoint
	}

	connections := make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)

	// Initialize client connections
	for _, endpoint := range config.Transport.Endpoints {
		// Create multiple connections per endpoint
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				endpoint:     endpoint,
				requestChans: xsync.NewMapOf[uint64, chan responseResult](),
				parent:       t,
			}

			// Establish the initial connection
			clientConn.connMu.Lock()
			_, err := clientConn.connectLocked()
			clientConn.connMu.Unlock()
			if err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}

			connections = append(connections, clientConn)
			Logger.Debugf("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)
		}
	}

	// Check if we have at least one connection
	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Debugf("Connected to %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Transport.Endpoints)*connectionsPerEP, len(config.Transport.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Send(req []byte) (resp []byte, err error) {
	if t.stopping.Load() {
		return nil, fmt.Errorf("transport is closed")
	}

	// Retry logic with exponential backoff
	var lastErr error

	// We always try at least once, and up to maxRetries times
	maxRetries := t.config.Transport.RetryCount
	if maxRetries < 1 {
		maxRetries = 1
	}

	// Initial backoff duration in milliseconds
	backoffMs := 50

	for i := 0; i < maxRetries; i++ {
		conn := t.getNextConnection()
		if conn == nil {
			return nil, fmt.Errorf("no active connections available")
		}

		// Try with this connection, every attempt uses a fresh request ID
		data, err := conn.send(atomic.AddUint64(&t.nextRequestID, 1), req)
		if err == nil {
			return data, nil
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, maxRetries, err)

		// The request reached the server, retrying could apply it twice
		if !errors.Is(err, ErrNotSent) {
			return nil, err
		}

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	// All attempts failed
	return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}

	// Simple Round Robin algorithm
	var index uint64
	if len(t.connections) == 1 {
		// optimize for single connection
		index = 0
	} else {
		index = atomic.AddUint64(&t.nextConnIndex, 1) % uint64(len(t.connections))
	}
	return t.connections[index]
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	defer t.connectionsMu.Unlock()

	for _, conn := range t.connections {
		conn.connMu.Lock()
		if conn.conn != nil {
			conn.dropLocked(conn.conn)
		}
		conn.connMu.Unlock()
	}

	// Empty the list
	t.connections = nil
}

// timeout returns the configured request timeout (0 = none)
func (t *clientTransport) timeout() time.Duration {
	return time.Duration(t.config.TimeoutSecond) * time.Second
}

// send writes one request to the connection and waits for the matching response
func (c *clientConnection) send(requestID uint64, req []byte) ([]byte, error) {
	// Create a channel for the response and register the request
	respCh := make(chan responseResult, 1)
	c.requestChans.Store(requestID, respCh)

	// Ensure we clean up when done
	defer c.requestChans.Delete(requestID)

	timeout := c.parent.timeout()

	// Lock the connection only for (re)connecting and writing
	c.connMu.Lock()
	conn, err := c.connectLocked()
	if err != nil {
		c.connMu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrNotSent, err)
	}
	if timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err = writeFrame(conn, requestID, req)
	if err != nil {
		c.dropLocked(conn)
	}
	c.connMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSent, err)
	}

	// Wait for response or timeout
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		return nil, fmt.Errorf("request timed out after %s", timeout)
	}
}

// connectLocked returns the current connection and establishes a new one if there is none.
// The caller must hold connMu.
func (c *clientConnection) connectLocked() (net.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	if c.parent.stopping.Load() {
		return nil, fmt.Errorf("transport is closed")
	}

	// Connect to the endpoint
	conn, err := c.parent.connector.Connect(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	c.conn = conn

	// Start the response reader
	go c.readResponses(conn)

	return conn, nil
}

// dropLocked closes conn if it is still the current connection. The caller must hold connMu.
func (c *clientConnection) dropLocked(conn net.Conn) {
	_ = conn.Close()
	if c.conn == conn {
		c.conn = nil
	}
}

// readResponses reads responses from conn in a loop and distributes them to waiting requests.
// It stops on the first read error, drops the connection and fails all requests still waiting on it.
func (c *clientConnection) readResponses(conn net.Conn) {
	for {
		// Read the response frame
		requestID, data, err := readFrame(conn, nil, 0)

		if err != nil {
			c.connMu.Lock()
			c.dropLocked(conn)
			c.connMu.Unlock()

			if !c.parent.stopping.Load() {
				Logger.Debugf("Connection to %s lost: %v", c.endpoint, err)
			}

			// Fail all pending requests of this connection
			c.requestChans.Range(func(_ uint64, ch chan responseResult) bool {
				select {
				case ch <- responseResult{nil, fmt.Errorf("error reading response: %w", err)}:
				default:
				}
				return true
			})
			return
		}

		// Find the corresponding request channel
		respCh, found := c.requestChans.Load(requestID)
		if !found {
			// Warning for unknown (e.g. timed out) request ID
			Logger.Warningf("Received response for unknown request ID %d", requestID)
			continue
		}

		select {
		case respCh <- responseResult{data, nil}:
		default:
		}
	}
}
