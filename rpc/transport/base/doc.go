// Package base provides the foundation for the stream transports of dht (TCP, Unix
// sockets). It implements the framing protocol, the server side connection model
// and the client side request multiplexing independent of the network protocol.
//
// Frame format (all integers big endian):
//
//	+----------------+----------------+-----------------+
//	| requestID (8B) | length (8B)    | payload (length)|
//	+----------------+----------------+-----------------+
//
// Responses carry the requestID of their request, so one connection can carry any
// number of concurrent calls and responses may arrive in any order.
//
// Server Connection Model:
//
//   - Listener loop: accepts connections forever. A failed accept is logged and
//     the loop continues, only closing the listener ends it.
//
//   - Admission: a connection from an address that already has
//     ServerConfig.MaxChannelsPerAddr open channels is closed without being served.
//     Admitted connections become channels and wait until one of
//     ServerConfig.MaxActiveChannels serving slots is free. Waiting channels are
//     not ordered.
//
//   - Channel: reads frames and hands every request to the handler in its own
//     goroutine (at most ServerConfig.MaxCallsPerChannel at a time). Responses are
//     written under a per connection mutex as soon as they are ready. A broken or
//     oversized frame ends only this channel, in-flight calls are finished first.
//
// Client:
//
//   - clientTransport: manages one or more connections per endpoint with
//     round-robin selection. Request IDs come from an atomic counter, a reader
//     goroutine per connection routes responses to the waiting request.
//     Requests that never reached a connection are retried with exponential backoff.
//
// Thread Safety:
//
//	All public methods are thread-safe. The server creates a dedicated goroutine
//	for each connection and for each call.
package base
