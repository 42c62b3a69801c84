package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"browser-dispatch/internal/application/port/input"
	"browser-dispatch/internal/domain/entity"

	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <tool> [json-args]",
	Short: "Dispatch a single tool call",
	Long: `Dispatch a single tool call and print its output. Binary items (screenshots)
are written to --out instead of stdout.

Example:
  browserctl call page_navigate '{"url":"https://www.example.com"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolArgs := map[string]any{}
		if len(args) == 2 {
			dec := json.NewDecoder(strings.NewReader(args[1]))
			dec.UseNumber()
			if err := dec.Decode(&toolArgs); err != nil {
				return fmt.Errorf("arguments must be a JSON object: %w", err)
			}
		}

		container, err := newContainer(cmd)
		if err != nil {
			return err
		}
		defer container.Close()

		var opts []input.DispatchOption
		if cmd.Flags().Changed("timeout") {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			opts = append(opts, input.WithTimeout(timeout))
		}

		name := entity.ToolName(args[0])
		items, err := container.Dispatcher.Dispatch(cmd.Context(), name, toolArgs, opts...)
		if err != nil {
			return err
		}

		outDir, _ := cmd.Flags().GetString("out")
		return printItems(name, items, outDir)
	},
}

func printItems(name entity.ToolName, items []entity.ResponseItem, outDir string) error {
	for i, item := range items {
		if item.Kind != entity.ItemBinary {
			fmt.Println(item.Text)
			continue
		}
		ext := strings.TrimPrefix(item.MediaType, "image/")
		path := filepath.Join(outDir, fmt.Sprintf("%s-%d.%s", name, i+1, ext))
		if err := os.WriteFile(path, item.Data, 0o644); err != nil {
			return fmt.Errorf("save %s: %w", item.MediaType, err)
		}
		fmt.Printf("Saved %s (%d bytes) to %s\n", item.MediaType, len(item.Data), path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().Duration("timeout", 0, "Execution timeout (defaults to DISPATCH_TIMEOUT)")
	callCmd.Flags().String("out", ".", "Directory for binary output such as screenshots")
}
