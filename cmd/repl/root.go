package repl

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dht/cmd/util"
	"github.com/ValentinKolb/dht/lib/store"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
	"os"
	"path/filepath"
)

const prompt = "dht> "

var (
	// ReplCmd starts the interactive client
	ReplCmd = &cobra.Command{
		Use:   "repl",
		Short: "Interactive client (get <key>, set <key> <value>, del <key>)",
		Long: `Starts an interactive client connected to a dht server.

Commands:
  get <key>          prints the value or nil
  set <key> <value>  prints OK
  del <key>          prints 1 if the key was removed, 0 otherwise

Ctrl-C or Ctrl-D exits.`,
		Args: cobra.NoArgs,
		RunE: run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags
	util.SetupRPCClientFlags(ReplCmd)

	key := "history-file"
	ReplCmd.Flags().String(key, "", util.WrapString("File to keep the command history in (default ~/.dht_history, \"-\" disables the history)"))
}

func run(cmd *cobra.Command, _ []string) error {
	s, err := util.ConnectStore(cmd)
	if err != nil {
		return err
	}
	if closer, ok := s.(io.Closer); ok {
		defer closer.Close()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile(viper.GetString("history-file")),
		InterruptPrompt: "^C",
		EOFPrompt:       "^D",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	return Loop(rl.Readline, s, rl.Stdout(), rl.Stderr())
}

// Loop reads lines with readLine and executes them against s until readLine fails.
// Results are written to out, failed commands print "Error: <msg>" to errOut and the loop continues.
// Interrupt (Ctrl-C) and EOF (Ctrl-D) end the loop without an error.
func Loop(readLine func() (string, error), s store.IStore, out, errOut io.Writer) error {
	for {
		line, err := readLine()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		result, err := util.ExecLine(s, line)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			continue
		}
		if result != "" {
			fmt.Fprintln(out, result)
		}
	}
}

// historyFile resolves the history file flag
func historyFile(flag string) string {
	switch flag {
	case "-":
		return ""
	case "":
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, ".dht_history")
	default:
		return flag
	}
}
