// Package client implements the RPC client of the dht key-value store.
// It provides an implementation of the store.IStore interface that forwards
// every call to a server via RPC.
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the store.IStore
//     interface. Get, Insert and Remove are sent as one request each and return
//     the optional value of the response (ok == false means the key was absent).
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:  []string{"[::1]:8080"},
//	    RetryCount: 3,
//	  },
//	}
//
//	store, err := client.NewRPCStore(config, tcp.NewTCPClientTransport(), serializer.NewJSONSerializer())
//	if err != nil {
//	  return err
//	}
//
//	prev, existed, err := store.Insert("foo", "bar")
//	value, ok, err := store.Get("foo")
//	removed, ok, err := store.Remove("foo")
//
// Errors:
//
//	An error is returned for transport failures and for error responses of the server.
//	An absent key is not an error.
//
// Thread Safety:
//
//	The client is safe for concurrent use. Concurrent calls share the connections
//	of the transport and are matched to their responses by request id.
package client
