package serve

import (
	"fmt"
	cmdUtil "github.com/ValentinKolb/dht/cmd/util"
	"github.com/ValentinKolb/dht/rpc/common"
	"github.com/ValentinKolb/dht/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
)

var (
	serveCmdConfig = common.DefaultServerConfig()
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the dht server",
		Long:    `Start the dht server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DHT_<flag> (e.g. DHT_MAX_ACTIVE_CHANNELS=20)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "[::1]:8080", cmdUtil.WrapString("The address on which the server will listen (e.g. [::1]:8080, /tmp/dht.sock, ...)"))

	key = "port"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("If set, listen on the loopback address with this port (overrides --endpoint, tcp only)"))

	key = "max-channels-per-addr"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxChannelsPerAddr, cmdUtil.WrapString("Maximum number of simultaneous connections from one address, further connections are closed (0 = unlimited)"))

	key = "max-active-channels"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxActiveChannels, cmdUtil.WrapString("Maximum number of connections served at the same time, further connections wait (0 = unlimited)"))

	key = "max-calls-per-channel"
	ServeCmd.PersistentFlags().Int(key, common.DefaultMaxCallsPerChannel, cmdUtil.WrapString("Maximum number of requests of one connection processed concurrently"))

	key = "max-frame-bytes"
	ServeCmd.PersistentFlags().Uint64(key, 0, cmdUtil.WrapString("Maximum size of a single request in bytes, larger requests close the connection (0 = unlimited)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Idle timeout of a connection in seconds (0 = none)"))

	key = "socket-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket write buffer in KB (0 = os default)"))

	key = "socket-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket read buffer in KB (0 = os default)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("If set, serve prometheus metrics on http://<address>/metrics (e.g. 127.0.0.1:9090)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.MaxChannelsPerAddr = viper.GetInt("max-channels-per-addr")
	serveCmdConfig.MaxActiveChannels = viper.GetInt("max-active-channels")
	serveCmdConfig.MaxCallsPerChannel = viper.GetInt("max-calls-per-channel")
	serveCmdConfig.MaxFrameBytes = viper.GetUint64("max-frame-bytes")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.SocketConf.WriteBufferSize = viper.GetInt("socket-write-buffer") * 1024
	serveCmdConfig.SocketConf.ReadBufferSize = viper.GetInt("socket-read-buffer") * 1024
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	// the port flag selects the loopback address
	if port := viper.GetInt("port"); port != 0 {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid port %d", port)
		}
		serveCmdConfig.Endpoint = net.JoinHostPort("::1", strconv.Itoa(port))
	}

	if serveCmdConfig.MaxChannelsPerAddr < 0 || serveCmdConfig.MaxActiveChannels < 0 {
		return fmt.Errorf("channel limits must not be negative")
	}

	// validate the log level early, the server would fail later
	if _, err := common.ParseLogLevel(serveCmdConfig.LogLevel); err != nil {
		return err
	}

	return nil
}

// run starts the dht server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	if err := common.InitLoggers(serveCmdConfig.LogLevel); err != nil {
		return err
	}

	serv := server.NewRPCServer(
		serveCmdConfig,
		t,
		s,
	)

	// Stop the server on interrupt, in-flight connections are closed
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		server.Logger.Infof("Shutting down")
		_ = serv.Close()
	}()

	return serv.Serve()
}
