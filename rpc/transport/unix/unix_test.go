package unix

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/dht/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socketPath returns a short socket path, sun_path is limited to ~100 bytes
func socketPath(t *testing.T) string {
	dir, err := os.MkdirTemp("", "dht")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestUnixRoundTrip(t *testing.T) {
	path := socketPath(t)

	config := common.DefaultServerConfig()
	config.Endpoint = path
	config.SocketConf = common.SocketConf{WriteBufferSize: 32 * 1024, ReadBufferSize: 32 * 1024}

	srv := NewUnixDefaultServerTransport()
	srv.RegisterHandler(func(req []byte) []byte {
		return append([]byte("echo:"), req...)
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(config) }()
	t.Cleanup(func() {
		assert.NoError(t, srv.Close())
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	require.Eventually(t, func() bool { return srv.Addr() != nil }, 5*time.Second, 10*time.Millisecond)

	client := NewUnixClientTransport()
	require.NoError(t, client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{path},
			ConnectionsPerEndpoint: 2,
			RetryCount:             1,
			SocketConf:             config.SocketConf,
		},
	}))
	defer client.Close()

	for _, req := range []string{"a", "", "hello"} {
		resp, err := client.Send([]byte(req))
		require.NoError(t, err)
		assert.Equal(t, "echo:"+req, string(resp))
	}
}

func TestUnixListenReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	listener, err := (&serverConnector{}).Listen(common.ServerConfig{Endpoint: path})
	require.NoError(t, err)
	defer listener.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSocket, info.Mode()&os.ModeSocket)
}

func TestUnixConnectMissingSocket(t *testing.T) {
	_, err := (&clientConnector{}).Connect(filepath.Join(t.TempDir(), "missing.sock"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no unix socket at")
}

func TestUnixPeerKey(t *testing.T) {
	assert.Equal(t, "unix", (&serverConnector{}).PeerKey(nil))
}
