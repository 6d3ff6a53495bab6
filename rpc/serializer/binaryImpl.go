package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dht/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey   byte = 1 << 0
	hasValue byte = 1 << 1
	hasOk    byte = 1 << 2
	hasErr   byte = 1 << 3
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	result := make([]byte, b.sizeBytes(msg))

	// Write message type
	result[0] = byte(msg.MsgType)

	var flags byte = 0
	pos := 2 // Start after MsgType and flags

	if msg.Key != "" {
		flags |= hasKey
		pos = putString(result, pos, msg.Key)
	}

	if msg.Value != "" {
		flags |= hasValue
		pos = putString(result, pos, msg.Value)
	}

	// Ok carries no payload, the flag is the value
	if msg.Ok {
		flags |= hasOk
	}

	if msg.Err != "" {
		flags |= hasErr
		pos = putString(result, pos, msg.Err)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	pos := 2

	var err error

	msg.Key = ""
	if flags&hasKey != 0 {
		if msg.Key, pos, err = readString(data, pos, "key"); err != nil {
			return err
		}
	}

	msg.Value = ""
	if flags&hasValue != 0 {
		if msg.Value, pos, err = readString(data, pos, "value"); err != nil {
			return err
		}
	}

	msg.Ok = flags&hasOk != 0

	msg.Err = ""
	if flags&hasErr != 0 {
		if msg.Err, pos, err = readString(data, pos, "error"); err != nil {
			return err
		}
	}

	if pos != len(data) {
		return fmt.Errorf("%d trailing bytes after message", len(data)-pos)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	// 4 bytes for length + string bytes
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != "" {
		size += 4 + len(msg.Value)
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}

// putString writes a length prefixed string at pos and returns the new position
func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	copy(buf[pos:pos+len(s)], s)
	return pos + len(s)
}

// readString reads a length prefixed string at pos and returns it with the new position
func readString(data []byte, pos int, field string) (string, int, error) {
	if pos+4 > len(data) {
		return "", pos, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4

	if n < 0 || pos+n > len(data) {
		return "", pos, fmt.Errorf("data too short for %s data", field)
	}
	return string(data[pos : pos+n]), pos + n, nil
}
