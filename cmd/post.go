package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/tweetbridge/internal/config"
	"github.com/teemow/tweetbridge/internal/tools/twitter_tools"
	"github.com/teemow/tweetbridge/internal/twitter"
)

var errPostFailed = errors.New("post failed")

func newPostCmd() *cobra.Command {
	opts := &commonOptions{}

	cmd := &cobra.Command{
		Use:   "post [text]",
		Short: "Post once to Twitter/X",
		Long: `Post a single message and print the same reply the MCP tool would give.

The text is taken from the arguments, joined by spaces. With no arguments,
or a single "-", it is read from standard input. The exit status is 1 when
the post fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, opts, args)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runPost(cmd *cobra.Command, opts *commonOptions, args []string) error {
	text, err := postText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	rt, err := loadRuntime(cmd, opts, nil)
	if err != nil {
		return err
	}

	client := rt.newTwitterClient(nil)
	result := client.Submit(cmd.Context(), twitter.PostRequest{Text: text}, config.CredentialsFromEnv())

	reply, isError := twitter_tools.FormatPostResult(result)
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	if isError {
		// The reply already describes the failure.
		cmd.SilenceErrors = true
		return errPostFailed
	}
	return nil
}

func postText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read text from stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	return strings.Join(args, " "), nil
}
