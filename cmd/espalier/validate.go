package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/library"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the plan library for consistency",
	Long:  `Parses the plan library and reports malformed nodes, dangling edges and unknown conditions.`,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("library")
		if len(args) > 0 {
			path = args[0]
		}
		lib, err := library.Load(path)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		for _, plan := range lib.Plans() {
			fmt.Printf("  %s (%d tasks, %d triggers)\n", plan.Title(), plan.Graph.TaskCount(), len(plan.Triggers))
		}
		fmt.Printf("Library is valid! ✅ (%d plans)\n", lib.Len())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
