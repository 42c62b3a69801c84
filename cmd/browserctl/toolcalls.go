package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"browser-dispatch/internal/adapter/llmtool"
	"browser-dispatch/internal/di"

	"github.com/spf13/cobra"
)

var toolCallsCmd = &cobra.Command{
	Use:   "toolcalls [json]",
	Short: "Answer OpenAI tool calls and print the resulting messages",
	Long: `Reads the tool calls of one assistant turn, either as a JSON array of tool calls or as the
assistant message itself, dispatches them in order and prints the messages to append to the
conversation as a JSON array. Screenshots come back as one trailing user message with inline images.

The input is taken from the argument, or from stdin when the argument is omitted or "-".

Example:
  browserctl toolcalls '[{"id":"call_1","type":"function","function":{"name":"page_navigate","arguments":"{\"url\":\"https://www.example.com\"}"}}]'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 1 && args[0] != "-" {
			data = []byte(args[0])
		} else if data, err = io.ReadAll(cmd.InOrStdin()); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}

		container, err := newContainer(cmd)
		if err != nil {
			return err
		}
		defer container.Close()

		return answerToolCalls(cmd.Context(), os.Stdout, data, container)
	},
}

func answerToolCalls(ctx context.Context, w io.Writer, data []byte, container *di.Container) error {
	calls, err := llmtool.ParseToolCalls(data)
	if err != nil {
		return err
	}

	msgs := llmtool.HandleToolCalls(ctx, container.Dispatcher, calls)
	for _, msg := range msgs {
		if strings.HasPrefix(msg.Content, "Error: ") {
			container.Logger.Warn("Tool call failed", "tool", msg.Name, "call_id", msg.ToolCallID, "error", msg.Content)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(msgs)
}

func init() {
	rootCmd.AddCommand(toolCallsCmd)
}
