package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dht/rpc/common"
	"github.com/ValentinKolb/dht/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
	"io"
	"net"
	"sync"
	"time"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// PeerKey returns the key used to count channels per originating address
	PeerKey(conn net.Conn) string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	bufferPool *sync.Pool
	bufferSize int
	metrics    *serverMetrics

	listenerMu sync.Mutex
	listener   net.Listener
	admission  *admissionController

	conns     *xsync.MapOf[net.Conn, struct{}] // all admitted connections
	channels  sync.WaitGroup                   // one entry per admitted connection
	done      chan struct{}                    // closed by Close
	closeOnce sync.Once
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport.
// bufferSize is the size of the pooled read buffers, larger frames are read into temporary buffers.
func NewBaseServerTransport(connector IServerConnector, bufferSize int) transport.IRPCServerTransport {
	if bufferSize < frameHeaderSize {
		bufferSize = frameHeaderSize
	}

	return &serverTransport{
		connector:  connector,
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
		metrics: newServerMetrics(connector.GetName()),
		conns:   xsync.NewMapOf[net.Conn, struct{}](),
		done:    make(chan struct{}),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	return t.Serve(listener, config)
}

func (t *serverTransport) Serve(listener net.Listener, config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	t.listenerMu.Lock()
	select {
	case <-t.done:
		t.listenerMu.Unlock()
		_ = listener.Close()
		return fmt.Errorf("transport is closed")
	default:
	}
	if t.listener != nil {
		t.listenerMu.Unlock()
		return fmt.Errorf("transport is already serving on %s", t.listener.Addr())
	}
	t.config = config
	t.listener = listener
	t.admission = newAdmissionController(config.MaxChannelsPerAddr, config.MaxActiveChannels)
	t.listenerMu.Unlock()

	Logger.Infof("Starting %s server on %s (channels per address: %d, active channels: %d, calls per channel: %d)",
		t.connector.GetName(), listener.Addr(), config.MaxChannelsPerAddr, config.MaxActiveChannels, t.maxCallsPerChannel())

	var backoff time.Duration

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			// Case listener closed: stop serving
			if errors.Is(err, net.ErrClosed) {
				Logger.Infof("Listener on %s closed", listener.Addr())
				return nil
			}

			// Case broken incoming connection: log, back off a little and continue
			t.metrics.acceptErrors.Inc()
			Logger.Errorf("Accept error: %v", err)
			backoff = nextAcceptBackoff(backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0
		t.metrics.accepted.Inc()

		// Per address limit, rejected connections are closed without being served
		peer := t.connector.PeerKey(conn)
		if !t.admission.tryAdmit(peer) {
			t.metrics.rejected.Inc()
			Logger.Warningf("Rejected connection from %s: already %d open channels for %s",
				conn.RemoteAddr(), t.admission.open(peer), peer)
			_ = conn.Close()
			continue
		}

		// Register the channel unless the transport was closed in the meantime
		t.listenerMu.Lock()
		select {
		case <-t.done:
			t.listenerMu.Unlock()
			t.admission.leave(peer)
			_ = conn.Close()
			return nil
		default:
		}
		t.conns.Store(conn, struct{}{})
		t.channels.Add(1)
		t.listenerMu.Unlock()

		// Handle the connection in a goroutine
		go t.handleChannel(conn, peer)
	}
}

func (t *serverTransport) Addr() net.Addr {
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *serverTransport) WriteMetrics(w io.Writer) {
	t.metrics.set.WritePrometheus(w)
}

func (t *serverTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.listenerMu.Lock()
		close(t.done)
		if t.listener != nil {
			err = t.listener.Close()
		}
		t.listenerMu.Unlock()

		// Close all admitted connections, their channels end on the next read
		t.conns.Range(func(conn net.Conn, _ struct{}) bool {
			_ = conn.Close()
			return true
		})
		t.channels.Wait()
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// maxCallsPerChannel returns the number of concurrent calls per channel (minimum one)
func (t *serverTransport) maxCallsPerChannel() int {
	if t.config.MaxCallsPerChannel < 1 {
		return 1
	}
	return t.config.MaxCallsPerChannel
}

// handleChannel waits for a served slot, serves the channel and releases all admission state
func (t *serverTransport) handleChannel(conn net.Conn, peer string) {
	defer t.channels.Done()
	defer t.admission.leave(peer)
	defer t.conns.Delete(conn)
	defer conn.Close()

	// Wait for a free slot (blocks if MaxActiveChannels channels are served)
	t.metrics.queued.Inc()
	ok := t.admission.acquire(t.done)
	t.metrics.queued.Dec()
	if !ok {
		return
	}
	defer t.admission.release()

	t.metrics.active.Inc()
	defer t.metrics.active.Dec()

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
	}

	Logger.Debugf("Serving channel for %s", conn.RemoteAddr())
	t.serveChannel(conn)
	Logger.Debugf("Channel for %s closed", conn.RemoteAddr())
}

// serveChannel handles incoming requests for one connection until it is closed.
// Every request is processed in its own goroutine, responses are written as soon
// as they are ready and carry the requestID of their request.
func (t *serverTransport) serveChannel(conn net.Conn) {
	// Idle timeout in seconds
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	// Create a semaphore to limit concurrent workers for this connection
	// The buffered channel acts as a counting semaphore
	workerSemaphore := make(chan struct{}, t.maxCallsPerChannel())

	// Create a wait group to wait for all workers to finish
	var wg sync.WaitGroup

	// Create a mutex to protect writes to the connection
	var connMutex sync.Mutex

	// Handler function that processes requests in worker goroutines
	handleResponse := func(requestID uint64, data []byte) {
		// When done, release the semaphore and mark worker as done
		defer func() {
			<-workerSemaphore // Release semaphore slot
			wg.Done()         // Mark worker as done
		}()

		// Process the request
		start := time.Now()
		resp := t.callHandler(data)
		Logger.Debugf("Processed request %d from %s in %s", requestID, conn.RemoteAddr(), time.Since(start))

		// Protect writes to the connection with a mutex
		connMutex.Lock()
		defer connMutex.Unlock()

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}

		// Write the response with the same requestID
		if err := writeFrame(conn, requestID, resp); err != nil {
			Logger.Errorf("Failed to write response %d: %v", requestID, err)
		}
	}

	// Function to handle incoming requests
	handleRequest := func() error {
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return fmt.Errorf("failed to set read deadline: %w", err)
			}
		}

		// Get a buffer from the pool
		buf := t.bufferPool.Get().([]byte)

		// Read the frame with requestID
		requestID, data, err := readFrame(conn, buf, t.config.MaxFrameBytes)

		// Error reading frame
		if err != nil {
			t.bufferPool.Put(buf)
			return err
		}
		t.metrics.calls.Inc()

		// Acquire a slot in the semaphore (blocks if MaxCallsPerChannel is reached)
		workerSemaphore <- struct{}{}

		// Increment the wait group counter
		wg.Add(1)

		// Process in a goroutine
		go func() {
			defer t.bufferPool.Put(buf)
			handleResponse(requestID, data)
		}()

		return nil
	}

	// Handle requests in a loop
	for {
		err := handleRequest()

		// Case EOF: Connection closed by client
		if err == io.EOF {
			Logger.Debugf("Connection closed by %s", conn.RemoteAddr())
			break
		}

		// Case closed by the server
		if errors.Is(err, net.ErrClosed) {
			break
		}

		// Case error: log and close connection
		if err != nil {
			t.metrics.frameErrors.Inc()
			Logger.Warningf("Closing channel for %s: %v", conn.RemoteAddr(), err)
			break
		}
	}

	// Wait for all workers to finish before closing the connection
	wg.Wait()
}

// callHandler calls the registered handler and turns a panic into a nil response
// so a faulty request only affects its own call
func (t *serverTransport) callHandler(data []byte) (resp []byte) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Handler panicked: %v", r)
			resp = nil
		}
	}()
	return t.handler(data)
}

// nextAcceptBackoff doubles the backoff after a failed accept, starting at 5ms and capped at one second
func nextAcceptBackoff(prev time.Duration) time.Duration {
	if prev == 0 {
		return 5 * time.Millisecond
	}
	if next := prev * 2; next < time.Second {
		return next
	}
	return time.Second
}
