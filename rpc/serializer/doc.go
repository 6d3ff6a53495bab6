// Package serializer converts the get, insert and remove Messages of the dht
// RPC protocol to bytes and back. The transport layer only moves opaque
// frames, so the serializer decides what a frame body looks like on the wire.
//
// Three codecs are available and selected with the --serializer flag:
//
//   - binary: A hand written format. One flag byte marks which optional fields
//     follow, strings carry a 4 byte big endian length. Smallest and fastest,
//     recommended when client and server are both dht binaries.
//
//   - json: The default of the command line tools. Message types are encoded by
//     name ("get", "insert", ...) so frames can be read in a packet capture.
//
//   - gob: Go's gob format. Every frame carries its own type information, which
//     makes it the largest of the three. Kept for comparison in benchmarks.
//
// Client and server must use the same codec, frames of another codec fail to
// decode and the server answers with an error response.
//
// Deserialize always overwrites the whole target Message, so a Message can be
// reused across frames without leaking fields of an earlier request. A failed
// decode of the json and gob codecs leaves the target unchanged.
//
// All codecs are stateless and can be shared between goroutines:
//
//	s := serializer.NewBinarySerializer()
//	data, err := s.Serialize(common.Message{MsgType: common.MsgTKVGet, Key: "foo"})
//	// ... send data, receive resp ...
//	var msg common.Message
//	err = s.Deserialize(resp, &msg)
package serializer
