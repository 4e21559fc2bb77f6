package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the tweetbridge application
var rootCmd = newRootCmd()

// version will be set by main
var version = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tweetbridge",
		Short: "MCP server that posts to Twitter/X",
		Long: `tweetbridge exposes a single MCP tool, create-post-on-twitter, that signs
and sends posts to the Twitter/X API v2 with OAuth 1.0a user credentials.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (default)
  - A one-shot command line poster (tweetbridge post)`,
		SilenceUsage: true,
		Version:      version,
	}
	cmd.SetVersionTemplate(`{{printf "tweetbridge version %s\n" .Version}}`)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPostCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newGenerateDocsCmd())

	return cmd
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetArgs(defaultToServe(rootCmd, os.Args[1:]))

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// defaultToServe runs serve when no subcommand is given, including when only
// serve flags are passed (tweetbridge --transport streamable-http).
func defaultToServe(root *cobra.Command, args []string) []string {
	if len(args) == 0 {
		return []string{"serve"}
	}
	switch args[0] {
	case "-h", "--help", "-v", "--version":
		return args
	}
	if !strings.HasPrefix(args[0], "-") {
		return args
	}
	for _, a := range args {
		if sub, _, err := root.Find([]string{a}); err == nil && sub != root {
			return args
		}
	}
	return append([]string{"serve"}, args...)
}
