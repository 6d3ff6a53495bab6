// Package rpc provides the remote procedure call layer of dht. It connects
// clients to the store of a server across process boundaries.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication with pluggable implementations (TCP, Unix sockets).
//     The shared base implementation frames requests, multiplexes calls on one
//     connection and applies the admission limits of the server.
//
//   - serializer: Message serialization with multiple format options (JSON, GOB, Binary)
//     for converting between Message objects and byte arrays.
//
//   - client: RPC client implementing the store interface, allowing applications
//     to use a remote store like a local one.
//
//   - server: RPC server that answers get, insert and remove requests from its local store.
package rpc
