// Package unix serves and dials dht channels over Unix domain sockets.
//
// The server removes a leftover socket file before listening, so a crashed
// server can be restarted on the same path. Every peer of a socket is a local
// process and has no address of its own, so all unix channels share the peer
// key "unix": with the default limits only two local clients are served at a
// time, further connections are closed. Use --max-channels-per-addr=0 to let
// local clients be limited by the global channel cap only.
//
// SocketConf buffer sizes are applied on both sides, TCPConf is ignored.
package unix
