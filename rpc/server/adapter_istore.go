package server

import (
	"fmt"
	"github.com/ValentinKolb/dht/lib/store"
	"github.com/ValentinKolb/dht/rpc/common"
)

// NewIStoreServerAdapter creates an adapter that translates requests into calls on the given store
func NewIStoreServerAdapter(store store.IStore) IRPCServerAdapter {
	return &iStoreServerAdapterImpl{store: store}
}

type iStoreServerAdapterImpl struct {
	store store.IStore
}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message) *common.Message {
	// Check for nil store
	if adapter.store == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTKVGet:
		Logger.Debugf("Get(%q)", req.Key)
		val, ok, err := adapter.store.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTKVInsert:
		Logger.Debugf("Insert(%q, %q)", req.Key, req.Value)
		prev, ok, err := adapter.store.Insert(req.Key, req.Value)
		return common.NewInsertResponse(prev, ok, err)
	case common.MsgTKVRemove:
		Logger.Debugf("Remove(%q)", req.Key)
		removed, ok, err := adapter.store.Remove(req.Key)
		return common.NewRemoveResponse(removed, ok, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
