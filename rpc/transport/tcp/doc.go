// Package tcp serves and dials dht channels over TCP.
//
// Channels are counted per peer IP for the per address limit, so connections
// from different ports of one host share that limit. IPv4 mapped IPv6 peers are
// counted under their IPv4 address.
//
// Accepted and dialed connections are tuned from the config: TCPNoDelay,
// TCPLingerSec (negative keeps the os default) and the SocketConf buffer sizes.
// The server reads frames into a 64 KB buffer per channel by default, larger
// frames are read into a temporary buffer of their own size.
package tcp
