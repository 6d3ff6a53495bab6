package kv

import (
	"fmt"
	"github.com/ValentinKolb/dht/cmd/util"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key (prints OK)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := util.Set(rpcStore, args[0], args[1])
			return printOutput(cmd, out, err)
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key (prints nil if the key is not set)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := util.Get(rpcStore, args[0])
			return printOutput(cmd, out, err)
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair (prints 1 if the key was set, 0 otherwise)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := util.Del(rpcStore, args[0])
			return printOutput(cmd, out, err)
		},
	}
)

func printOutput(cmd *cobra.Command, out string, err error) error {
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
