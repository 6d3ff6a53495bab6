// Package common provides core data structures and utilities shared across
// the dht RPC system. It defines fundamental types, configuration structures,
// and protocol elements used by other packages.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. Optional values
//     are carried as the pair (Value, Ok), where Ok == false means absent.
//
//   - MessageType: Enumeration of the supported operations (get, insert, remove)
//     plus the error message type.
//
//   - ServerConfig: Listener endpoint, admission limits (channels per address,
//     active channels), channel limits and logging for the server.
//
//   - ClientConfig: Configuration for client components, controlling endpoints,
//     timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's
//     logger package and provides consistent formatting across the application.
package common
