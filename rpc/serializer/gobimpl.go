package serializer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"github.com/ValentinKolb/dht/rpc/common"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format.
// Every message is a self-contained gob stream including its type information.
func NewGOBSerializer() IRPCSerializer {
	return gobSerializerImpl{}
}

// gobSerializerImpl implements the IRPCSerializer interface using gob encoding
type gobSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (gobSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	// gob skips zero values, decode into a fresh message
	var decoded common.Message
	r := bytes.NewReader(b)
	if err := gob.NewDecoder(r).Decode(&decoded); err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf("gob: %d trailing bytes after message", r.Len())
	}
	*msg = decoded
	return nil
}
