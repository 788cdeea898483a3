// Command pycleaner splits a Python project into libraries, the files
// reachable by imports from a set of core files, and scripts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/pycleaner/internal/graph"
)

// version is set by goreleaser at build time.
var version = "dev"

const (
	exitError       = 1
	exitConfigError = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	var cfgErr *graph.ConfigurationError
	if errors.As(err, &cfgErr) {
		return exitConfigError
	}
	return exitError
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "pycleaner",
		Short: "Split a Python project into libraries and scripts",
		Long: `pycleaner follows import statements from a set of core files and
classifies every Python file of a project: files reachable from the core
are libraries, everything else is a script.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		// No Run: prints help by default.
	}

	rootCmd.PersistentFlags().StringVarP(&g.project, "project", "p", ".", "the directory of the project to check")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose (debug) logging to stderr")

	rootCmd.AddCommand(newScanCommand(g))
	rootCmd.AddCommand(newWhyCommand(g))
	rootCmd.AddCommand(newDiagramCommand(g))
	rootCmd.AddCommand(newServeMCPCommand(g))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pycleaner %s\n", version)
		},
	}
}
