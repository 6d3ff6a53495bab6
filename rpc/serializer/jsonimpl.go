package serializer

import (
	"encoding/json"
	"github.com/ValentinKolb/dht/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding.
// Message types are encoded by name, e.g. {"msg_type":"get","key":"foo"}.
func NewJSONSerializer() IRPCSerializer {
	return jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	// omitted fields would keep their old value otherwise
	var decoded common.Message
	if err := json.Unmarshal(b, &decoded); err != nil {
		return err
	}
	*msg = decoded
	return nil
}
