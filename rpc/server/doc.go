// Package server implements the RPC server of the dht key-value store.
// It owns the local store, translates incoming requests into store calls
// and wires the serializer and the transport together.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for server adapters,
//     with the Handle method that turns a request message into a response message.
//
//   - NewIStoreServerAdapter: Factory function creating an adapter for the
//     key-value operations (get, insert, remove) of a store.IStore.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	config := common.DefaultServerConfig()
//	config.Endpoint = "[::1]:8080"
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Requests that can not be decoded are answered with an error message, the
// connection stays open. If MetricsEndpoint is set, Serve also exposes the call,
// channel and process metrics in prometheus text format on /metrics.
//
// Thread Safety:
//
//	The handler is called concurrently for all connections and all calls of a
//	connection. Every store operation is atomic on its own.
package server
