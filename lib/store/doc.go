// Package store provides the interface for key-value storage operations used
// throughout dht. The server side works against a local implementation, the
// client side implements the very same interface on top of the RPC layer, so
// applications can switch between both without code changes.
//
// The package focuses on:
//   - A unified interface (IStore) with exactly three operations: Get, Insert and Remove
//   - An explicit representation of absent values (the ok return value)
//
// Key Components:
//
//   - IStore Interface: Get returns the current value, Insert returns the value it
//     replaced and Remove returns the value it deleted. A missing key is reported
//     with ok == false and a nil error. Errors are reserved for transport failures
//     of remote implementations.
//
// Implementations:
//
//	- Local Store (lstore): A single map guarded by one mutex. Every operation is a
//	  single critical section, which makes all operations linearizable.
//	  Available in the "github.com/ValentinKolb/dht/lib/store/lstore" package.
//
//	- RPC Store: A client that forwards every operation to a dht server.
//	  Available in the "github.com/ValentinKolb/dht/rpc/client" package.
package store
