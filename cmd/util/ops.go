package util

import (
	"fmt"
	"github.com/ValentinKolb/dht/lib/store"
	"github.com/ValentinKolb/dht/rpc/client"
	"github.com/ValentinKolb/dht/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

// Output of the client commands
const (
	OutNil     = "nil" // get on an absent key
	OutOK      = "OK"  // set
	OutRemoved = "1"   // del on a present key
	OutAbsent  = "0"   // del on an absent key
)

// ErrUsage is returned for lines that are not a valid command
type ErrUsage struct {
	msg string
}

func (e *ErrUsage) Error() string {
	return e.msg
}

// Get returns the value of key or "nil"
func Get(s store.IStore, key string) (string, error) {
	value, ok, err := s.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return OutNil, nil
	}
	return value, nil
}

// Set stores value under key and returns "OK"
func Set(s store.IStore, key, value string) (string, error) {
	if _, _, err := s.Insert(key, value); err != nil {
		return "", err
	}
	return OutOK, nil
}

// Del removes key and returns "1" if a value was removed, "0" otherwise
func Del(s store.IStore, key string) (string, error) {
	_, ok, err := s.Remove(key)
	if err != nil {
		return "", err
	}
	if ok {
		return OutRemoved, nil
	}
	return OutAbsent, nil
}

// ExecLine runs one command line (get <key>, set <key> <value> or del <key>).
// Arguments are separated by whitespace, so keys and values can not contain spaces.
// Empty lines return an empty output.
func ExecLine(s store.IStore, line string) (string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}

	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "get":
		if len(args) != 1 {
			return "", &ErrUsage{"usage: get <key>"}
		}
		return Get(s, args[0])
	case "set":
		if len(args) != 2 {
			return "", &ErrUsage{"usage: set <key> <value>"}
		}
		return Set(s, args[0], args[1])
	case "del":
		if len(args) != 1 {
			return "", &ErrUsage{"usage: del <key>"}
		}
		return Del(s, args[0])
	default:
		return "", &ErrUsage{fmt.Sprintf("unknown command %q (expected get, set or del)", cmd)}
	}
}

// ConnectStore binds the flags of cmd, initializes the client logger and connects an RPC store
func ConnectStore(cmd *cobra.Command) (store.IStore, error) {
	// Bind command flags to viper
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}

	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return nil, err
	}

	// Get client configuration components
	config := GetClientConfig()

	// Get serializer and transport
	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}

	t, err := GetTransport()
	if err != nil {
		return nil, err
	}

	// Create the KV store client
	return client.NewRPCStore(*config, t, s)
}
