package main

import (
	"fmt"
	"time"

	"browser-dispatch/internal/usecase/scenario"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Run the built-in smoke scenarios against the configured backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := newContainer(cmd)
		if err != nil {
			return err
		}
		defer container.Close()

		runner := scenario.NewRunner(container.Dispatcher, container.Logger)
		report := runner.Run(cmd.Context(), scenario.Default())

		for _, res := range report.Results {
			status := "PASS"
			if !res.Passed() {
				status = "FAIL"
			}
			fmt.Printf("%s  %-20s %-18s %s\n", status, res.Scenario.Name, res.Scenario.Tool, res.Duration.Round(time.Millisecond))
			if res.Err != nil {
				fmt.Printf("      %v\n", res.Err)
			}
		}
		fmt.Printf("\n%d/%d scenarios passed\n", report.Passed, len(report.Results))

		if !report.AllPassed() {
			return fmt.Errorf("%d scenario(s) failed", len(report.Results)-report.Passed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
