package base

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dht/rpc/common"
	"github.com/ValentinKolb/dht/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Test Helpers
// --------------------------------------------------------------------------

// testServerConnector is a plain tcp connector keyed by peer ip
type testServerConnector struct{}

func (testServerConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	return net.Listen("tcp", config.Endpoint)
}

func (testServerConnector) GetName() string { return "test" }

func (testServerConnector) PeerKey(conn net.Conn) string {
	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	return host
}

func (testServerConnector) UpgradeConnection(net.Conn, common.ServerConfig) error { return nil }

// testClientConnector dials plain tcp connections
type testClientConnector struct{}

func (testClientConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("tcp", endpoint)
}

func (testClientConnector) GetName() string { return "test" }

func (testClientConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

func echoHandler(req []byte) []byte {
	resp := make([]byte, len(req))
	copy(resp, req)
	return resp
}

// startServer serves handler on a random loopback port and stops the server when the test ends
func startServer(t *testing.T, config common.ServerConfig, handler transport.ServerHandleFunc) (*serverTransport, string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewBaseServerTransport(testServerConnector{}, 1024).(*serverTransport)
	srv.RegisterHandler(handler)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener, config) }()

	t.Cleanup(func() {
		assert.NoError(t, srv.Close())
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after Close")
		}
	})

	return srv, listener.Addr().String()
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// roundTrip sends one request on conn and waits (at most wait) for the response
func roundTrip(conn net.Conn, id uint64, payload string, wait time.Duration) (string, error) {
	if err := writeFrame(conn, id, []byte(payload)); err != nil {
		return "", err
	}
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	respID, data, err := readFrame(conn, nil, 0)
	if err != nil {
		return "", err
	}
	if respID != id {
		return "", fmt.Errorf("got response %d for request %d", respID, id)
	}
	return string(data), nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestServerEcho(t *testing.T) {
	_, addr := startServer(t, common.DefaultServerConfig(), echoHandler)
	conn := dial(t, addr)

	for i := uint64(1); i <= 10; i++ {
		resp, err := roundTrip(conn, i, fmt.Sprintf("msg-%d", i), time.Second)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("msg-%d", i), resp)
	}

	// payload larger than the pooled buffer
	large := strings.Repeat("y", 10*1024)
	resp, err := roundTrip(conn, 99, large, time.Second)
	require.NoError(t, err)
	assert.Equal(t, large, resp)
}

func TestServerOutOfOrderResponses(t *testing.T) {
	release := make(chan struct{})
	handler := func(req []byte) []byte {
		if string(req) == "slow" {
			<-release
		}
		return echoHandler(req)
	}
	_, addr := startServer(t, common.DefaultServerConfig(), handler)
	conn := dial(t, addr)

	require.NoError(t, writeFrame(conn, 1, []byte("slow")))
	require.NoError(t, writeFrame(conn, 2, []byte("fast")))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	id, data, err := readFrame(conn, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)
	assert.Equal(t, "fast", string(data))

	close(release)
	id, data, err = readFrame(conn, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, "slow", string(data))
}

func TestServerPerAddressLimit(t *testing.T) {
	config := common.DefaultServerConfig()
	config.MaxChannelsPerAddr = 2
	srv, addr := startServer(t, config, echoHandler)

	// the first two channels are served
	conn1 := dial(t, addr)
	conn2 := dial(t, addr)
	for _, conn := range []net.Conn{conn1, conn2} {
		resp, err := roundTrip(conn, 1, "ping", time.Second)
		require.NoError(t, err)
		assert.Equal(t, "ping", resp)
	}

	// the third is closed without a response
	conn3 := dial(t, addr)
	_, err := roundTrip(conn3, 1, "ping", 2*time.Second)
	require.Error(t, err)
	assert.False(t, isTimeout(err), "rejected connection must be closed, not left hanging")
	assert.Equal(t, uint64(1), srv.metrics.rejected.Get())

	// closing one channel frees the spot for a new one
	require.NoError(t, conn1.Close())
	require.Eventually(t, func() bool {
		return srv.admission.open("127.0.0.1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn4 := dial(t, addr)
	resp, err := roundTrip(conn4, 1, "ping", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ping", resp)
}

func TestServerActiveChannelLimit(t *testing.T) {
	config := common.DefaultServerConfig()
	config.MaxChannelsPerAddr = 0
	config.MaxActiveChannels = 1
	srv, addr := startServer(t, config, echoHandler)

	conn1 := dial(t, addr)
	resp, err := roundTrip(conn1, 1, "first", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", resp)

	// the second channel is admitted but not served while the first one is open
	conn2 := dial(t, addr)
	_, err = roundTrip(conn2, 1, "second", 300*time.Millisecond)
	require.Error(t, err)
	assert.True(t, isTimeout(err), "expected the call to wait, got %v", err)
	assert.Equal(t, 1, srv.admission.served())
	assert.Equal(t, uint64(1), srv.metrics.queued.Get())

	// closing the first channel frees the slot, the pending call is served
	require.NoError(t, conn1.Close())
	_ = conn2.SetReadDeadline(time.Now().Add(2 * time.Second))
	id, data, err := readFrame(conn2, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, "second", string(data))
}

func TestServerMalformedFrameEndsOnlyItsChannel(t *testing.T) {
	config := common.DefaultServerConfig()
	config.MaxFrameBytes = 64
	srv, addr := startServer(t, config, echoHandler)

	good := dial(t, addr)
	bad := dial(t, addr)

	// announce a frame above the limit
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], 1)
	binary.BigEndian.PutUint64(header[8:], 1024)
	_, err := bad.Write(header)
	require.NoError(t, err)

	_ = bad.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = readFrame(bad, nil, 0)
	require.Error(t, err)
	assert.False(t, isTimeout(err))

	resp, err := roundTrip(good, 7, "still here", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "still here", resp)
	assert.Equal(t, uint64(1), srv.metrics.frameErrors.Get())
}

func TestServerHandlerPanic(t *testing.T) {
	handler := func(req []byte) []byte {
		if string(req) == "boom" {
			panic("boom")
		}
		return echoHandler(req)
	}
	_, addr := startServer(t, common.DefaultServerConfig(), handler)
	conn := dial(t, addr)

	resp, err := roundTrip(conn, 1, "boom", time.Second)
	require.NoError(t, err)
	assert.Empty(t, resp)

	resp, err = roundTrip(conn, 2, "ok", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestServerServeWithoutHandler(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	srv := NewBaseServerTransport(testServerConnector{}, 1024)
	assert.Error(t, srv.Serve(listener, common.DefaultServerConfig()))
}

func TestServerCloseEndsChannels(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewBaseServerTransport(testServerConnector{}, 1024)
	srv.RegisterHandler(echoHandler)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener, common.DefaultServerConfig()) }()

	conn := dial(t, listener.Addr().String())
	_, err = roundTrip(conn, 1, "ping", time.Second)
	require.NoError(t, err)
	assert.Equal(t, listener.Addr().String(), srv.Addr().String())

	require.NoError(t, srv.Close())
	require.NoError(t, <-errCh)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = readFrame(conn, nil, 0)
	assert.Error(t, err)
}

func TestClientTransportConcurrentCalls(t *testing.T) {
	_, addr := startServer(t, common.DefaultServerConfig(), echoHandler)

	client := NewBaseClientTransport(testClientConnector{})
	require.NoError(t, client.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:  []string{addr},
			RetryCount: 1,
		},
	}))
	defer client.Close()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("call-%d", i)
			resp, err := client.Send([]byte(msg))
			if assert.NoError(t, err) {
				assert.Equal(t, msg, string(resp))
			}
		}(i)
	}
	wg.Wait()
}

func TestClientTransportRejected(t *testing.T) {
	config := common.DefaultServerConfig()
	config.MaxChannelsPerAddr = 1
	_, addr := startServer(t, config, echoHandler)

	clientConfig := common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoints: []string{addr}},
	}

	first := NewBaseClientTransport(testClientConnector{})
	require.NoError(t, first.Connect(clientConfig))
	defer first.Close()
	_, err := first.Send([]byte("hello"))
	require.NoError(t, err)

	second := NewBaseClientTransport(testClientConnector{})
	require.NoError(t, second.Connect(clientConfig))
	defer second.Close()
	_, err = second.Send([]byte("hello"))
	assert.Error(t, err)
}
