package serializer

import "github.com/ValentinKolb/dht/rpc/common"

// IRPCSerializer converts Messages to bytes and back.
// Implementations are stateless and safe for concurrent use.
type IRPCSerializer interface {
	// Serialize encodes msg
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg. All fields of msg are overwritten,
	// fields that are not present in b are reset to their zero value.
	// Malformed input returns an error.
	Deserialize(b []byte, msg *common.Message) error
}
