package unix

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dht/rpc/common"
	"github.com/ValentinKolb/dht/rpc/transport"
	"github.com/ValentinKolb/dht/rpc/transport/base"
	"io/fs"
	"net"
	"os"
	"time"
)

// dialTimeout bounds connecting to a socket whose server does not accept
const dialTimeout = 5 * time.Second

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(endpoint string) (net.Conn, error) {
	// a missing socket file usually means the server is not running or uses another path
	if _, err := os.Stat(endpoint); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no unix socket at %s (is the server running?)", endpoint)
	}
	return net.DialTimeout("unix", endpoint, dialTimeout)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return applySocketConf(conn, config.Transport.SocketConf)
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixClientTransport creates a new client transport that talks to a server
// over the unix socket files given as endpoints
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
