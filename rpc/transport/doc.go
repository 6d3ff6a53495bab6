// Package transport defines how dht moves request and response frames between
// a client and a server. A transport never looks into a frame, decoding is left
// to the serializer.
//
// On the server side an IRPCServerTransport owns the listener loop: it accepts
// connections (Channels), admits or rejects them, and calls the registered
// ServerHandleFunc for every request frame. The handler runs concurrently, so
// responses of one Channel may be written in another order than the requests
// arrived; the request id of a frame links both.
//
// On the client side an IRPCClientTransport sends a request frame and blocks
// until the matching response arrives or the timeout expires.
//
// The tcp and unix packages provide both sides on top of the base package.
package transport
