package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "mpg version %s (commit %s, built %s)\n", Version, Commit, BuildDate)
			_, _ = fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			_, _ = fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "mpg [flags] <reference>...",
		Short: "Markov process generator of DNA sequences",
		Long: `mpg trains a k-th order Markov model on reference sequences and samples
synthetic sequences with the same k-mer statistics.

References are FASTA or FASTQ files, optionally compressed. With
--reference-dump the single reference is a model dump written by --dump.
The generated sequence is printed to standard output as a FASTA record;
diagnostics go to standard error.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	opts.register(rootCmd)

	rootCmd.AddCommand(modelsCommand(opts))
	rootCmd.AddCommand(removeCommand(opts))
	rootCmd.AddCommand(pruneCommand(opts))
	rootCmd.AddCommand(versionCommand())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
