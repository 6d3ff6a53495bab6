package client

import (
	"github.com/ValentinKolb/dht/lib/store"
	"github.com/ValentinKolb/dht/rpc/common"
	"github.com/ValentinKolb/dht/rpc/serializer"
	"github.com/ValentinKolb/dht/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a config, a transport and a serializer as parameters
// It returns a store.IStore and an error. The returned store also implements io.Closer.
func NewRPCStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Get(key string) (value string, ok bool, err error) {
	req := common.NewGetRequest(key)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return "", false, err
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcStore) Insert(key, value string) (prev string, ok bool, err error) {
	req := common.NewInsertRequest(key, value)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return "", false, err
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcStore) Remove(key string) (removed string, ok bool, err error) {
	req := common.NewRemoveRequest(key)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return "", false, err
	}
	return resp.Value, resp.Ok, nil
}

// Close closes the underlying transport
func (i *rpcStore) Close() error {
	return i.transport.Close()
}
