package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danmuck/simbridge/internal/logging"
	"github.com/danmuck/simbridge/internal/transport"
	"github.com/spf13/cobra"
)

const (
	exitFatal   = 1
	exitTimeout = 2
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "simbridge: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "simbridge",
		Short:         "Request/reply bridge between a simulation host and an external controller",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.ConfigureRuntime()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load, first readable wins")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newDriveCommand(opts))
	root.AddCommand(newConfigCommand(opts))
	return root
}

// exitCode separates timeouts from other fatal session errors for scripts.
func exitCode(err error) int {
	if errors.Is(err, transport.ErrTimeout) {
		return exitTimeout
	}
	return exitFatal
}
