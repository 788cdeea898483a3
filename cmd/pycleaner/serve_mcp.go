package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/pycleaner/internal/mcptools"
)

func newServeMCPCommand(g *globalOptions) *cobra.Command {
	var (
		addr        string
		stdio       bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Start an MCP server for AI agent integration",
		Long: `Start a Model Context Protocol server exposing the classifier as tools:
  - classify_project: libraries, scripts and import diagnostics of a project
  - explain_file: the import chain that makes a file a library
  - list_files: files filtered by role`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := g.logger(cmd)
			svc := mcptools.NewClassifierService(logger, concurrency)
			if stdio {
				return mcptools.RunMCPServerStdio(cmd.Context(), svc)
			}
			logger.Info("serving MCP", "addr", addr)
			return mcptools.RunMCPServer(cmd.Context(), svc, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8321", "listen address for the streamable HTTP transport")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "serve over stdin/stdout instead of HTTP")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel parsers per scan (default: number of CPUs)")

	return cmd
}
