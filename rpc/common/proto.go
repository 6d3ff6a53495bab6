package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
//
// Optional values are carried as the pair (Value, Ok): a response with Ok == false
// means the key was absent, Value is meaningless in that case.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key   string `json:"key,omitempty"`   // Used for: Get, Insert, Remove (requests)
	Value string `json:"value,omitempty"` // Used for: Insert (request), Get, Insert, Remove (responses)

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: Get, Insert, Remove responses
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value string, ok bool, err error) *Message {
	return newOptionalResponse(MsgTKVGet, value, ok, err)
}

// NewInsertRequest creates a new Insert request
func NewInsertRequest(key, value string) *Message {
	return &Message{
		MsgType: MsgTKVInsert,
		Key:     key,
		Value:   value,
	}
}

// NewInsertResponse creates a new Insert response carrying the previous value
func NewInsertResponse(prev string, ok bool, err error) *Message {
	return newOptionalResponse(MsgTKVInsert, prev, ok, err)
}

// NewRemoveRequest creates a new Remove request
func NewRemoveRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVRemove,
		Key:     key,
	}
}

// NewRemoveResponse creates a new Remove response carrying the removed value
func NewRemoveResponse(removed string, ok bool, err error) *Message {
	return newOptionalResponse(MsgTKVRemove, removed, ok, err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

func newOptionalResponse(t MessageType, value string, ok bool, err error) *Message {
	msg := &Message{
		MsgType: t,
		Ok:      ok,
	}
	if ok {
		msg.Value = value
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTKVGet:
		return "get"
	case MsgTKVInsert:
		return "insert"
	case MsgTKVRemove:
		return "remove"
	case MsgTError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "get":
		*t = MsgTKVGet
	case "insert":
		*t = MsgTKVInsert
	case "remove":
		*t = MsgTKVRemove
	case "error":
		*t = MsgTError
	case "unknown":
		*t = MsgTUnknown
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVGet    // Get a value by key
	MsgTKVInsert // Set a key-value pair, returns the previous value
	MsgTKVRemove // Delete a key-value pair, returns the removed value
)
