package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dht/lib/store/lstore"
	"github.com/ValentinKolb/dht/rpc/common"
	"github.com/ValentinKolb/dht/rpc/serializer"
	"github.com/ValentinKolb/dht/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters.
// The server owns a fresh local store, every connection works on the same store.
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		tcp.NewTCPDefaultServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	store := lstore.NewLocalStore()

	s := &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		store:      store,
		adapter:    NewIStoreServerAdapter(store),
		metrics:    newCallMetrics(store),
	}

	// Configure the transport layer
	s.transport.RegisterHandler(s.handle)

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return s
}

// RPCServer serves the key-value operations of one local store over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	store      *lstore.LocalStore
	adapter    IRPCServerAdapter
	metrics    *callMetrics

	metricsMu  sync.Mutex
	metricsSrv *http.Server
}

// handle is the transport handler: deserialize -> adapter -> serialize.
// A request that can not be decoded is answered with an error response.
func (s *RPCServer) handle(req []byte) []byte {
	var msg common.Message
	var respMsg *common.Message

	// Decode the request
	if err := s.serializer.Deserialize(req, &msg); err != nil {
		s.metrics.decodeErrors.Inc()
		Logger.Warningf("Failed to deserialize request: %v", err)
		respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		// Let the adapter handle the request
		s.metrics.call(msg.MsgType)
		respMsg = s.adapter.Handle(&msg)
	}

	// Return result
	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("Failed to serialize %s response: %v", respMsg.MsgType, err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// Serve starts the metrics endpoint (if configured) and serves the configured endpoint until Close is called
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// ServeListener is like Serve but uses an existing listener
func (s *RPCServer) ServeListener(listener net.Listener) error {
	if err := s.init(); err != nil {
		_ = listener.Close()
		return err
	}
	return s.transport.Serve(listener, s.config)
}

// Addr returns the address the server listens on, nil if it is not serving
func (s *RPCServer) Addr() net.Addr {
	return s.transport.Addr()
}

// Close stops the server and its metrics endpoint
func (s *RPCServer) Close() error {
	s.metricsMu.Lock()
	if s.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.metricsSrv.Shutdown(ctx); err != nil {
			Logger.Warningf("Failed to stop metrics endpoint: %v", err)
		}
		cancel()
		s.metricsSrv = nil
	}
	s.metricsMu.Unlock()

	return s.transport.Close()
}

func (s *RPCServer) init() error {
	// Init logger
	if s.config.LogLevel != "" {
		if err := common.InitLoggers(s.config.LogLevel); err != nil {
			return err
		}
	}

	if s.config.MetricsEndpoint == "" {
		return nil
	}

	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()

	listener, err := net.Listen("tcp", s.config.MetricsEndpoint)
	if err != nil {
		return fmt.Errorf("failed to start metrics endpoint: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.serveMetrics)
	s.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func(srv *http.Server) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("Metrics endpoint stopped: %v", err)
		}
	}(s.metricsSrv)

	Logger.Infof("Serving metrics on http://%s/metrics", listener.Addr())
	return nil
}

// serveMetrics writes the transport, server and process metrics in prometheus text format
func (s *RPCServer) serveMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.transport.WriteMetrics(w)
	s.metrics.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// callMetrics counts the calls handled by one server
type callMetrics struct {
	set          *metrics.Set
	decodeErrors *metrics.Counter
}

func newCallMetrics(store *lstore.LocalStore) *callMetrics {
	set := metrics.NewSet()
	set.NewGauge("dht_store_keys", func() float64 {
		return float64(store.Len())
	})
	return &callMetrics{
		set:          set,
		decodeErrors: set.NewCounter("dht_decode_errors_total"),
	}
}

func (m *callMetrics) call(t common.MessageType) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`dht_calls_total{type=%q}`, t.String())).Inc()
}
