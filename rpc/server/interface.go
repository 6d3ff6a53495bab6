package server

import (
	"github.com/ValentinKolb/dht/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response.
	// Domain results (including absent keys) are never errors,
	// an error response is only returned for requests the adapter can not handle.
	Handle(req *common.Message) (resp *common.Message)
}
