package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"browser-dispatch/internal/adapter/llmtool"
	"browser-dispatch/internal/di"

	"github.com/spf13/cobra"
)

const (
	formatText      = "text"
	formatJSON      = "json"
	formatOpenAI    = "openai"
	formatLangchain = "langchain"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered tools grouped by category",
	Long: `List registered tools.

Formats:
- text (default): grouped by category
- json: full definitions with parameter schemas
- openai: the "tools" array of a chat completion request
- langchain: tool names and descriptions as a langchaingo agent sees them`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			format = formatJSON
		}

		container, err := newContainer(cmd)
		if err != nil {
			return err
		}
		defer container.Close()

		return writeTools(os.Stdout, format, container)
	},
}

func writeTools(w io.Writer, format string, container *di.Container) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	switch format {
	case formatText, "":
		for _, group := range container.Registry.ByCategory() {
			fmt.Fprintf(w, "%s:\n", strings.ToUpper(string(group.Category)))
			for _, tool := range group.Tools {
				fmt.Fprintf(w, "  %-20s %s\n", tool.Name, tool.Description)
			}
			fmt.Fprintln(w)
		}
		return nil
	case formatJSON:
		return enc.Encode(container.Dispatcher.Definitions())
	case formatOpenAI:
		return enc.Encode(llmtool.OpenAITools(container.Dispatcher.Definitions()))
	case formatLangchain:
		for _, tool := range llmtool.LangchainTools(container.Dispatcher) {
			fmt.Fprintf(w, "%s: %s\n", tool.Name(), tool.Description())
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s. Supported: text, json, openai, langchain", format)
	}
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().String("format", formatText, "Output format: text, json, openai or langchain")
	toolsCmd.Flags().Bool("json", false, "Shorthand for --format json")
}
