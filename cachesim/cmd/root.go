// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

const usageLine = "cachesim <L1_SIZE> <L1_ASSOC> <L1_BLOCKSIZE> " +
	"<VC_NUM_BLOCKS> <L2_SIZE> <L2_ASSOC> <trace_file>"

// NewRootCommand creates the cachesim command. Statistics are written to out.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := defaultOptions()

	rootCmd := &cobra.Command{
		Use:   usageLine,
		Short: "Simulate an L1 / victim cache / L2 hierarchy on a memory trace.",
		Long: `cachesim runs a trace of reads and writes through a set-associative ` +
			`L1 cache, an optional fully-associative victim cache and an optional ` +
			`L2 cache, all with LRU replacement and write-back, and prints the ` +
			`number of reads, writes, misses and write-backs of every level. ` +
			`A VC_NUM_BLOCKS of 0 disables the victim cache and an L2_SIZE of 0 ` +
			`disables L2.`,
		Args:          requireConfigArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := parseConfig(args)
			if err != nil {
				return err
			}

			return run(cmd.OutOrStdout(), cfg, opts)
		},
	}

	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	opts.addFlags(rootCmd)

	return rootCmd
}

func requireConfigArgs(cmd *cobra.Command, args []string) error {
	err := cobra.MinimumNArgs(7)(cmd, args)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	}

	return err
}

// Execute loads the .env file, runs the command and exits.
func Execute() {
	loadDotEnv()

	err := NewRootCommand(os.Stdout, os.Stderr).Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func loadDotEnv() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("failed to load .env")
	}
}
