package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/library"
	"github.com/aretw0/espalier/internal/runtime"
)

// simulateCmd drives a single plan with canned tool outputs, one line per
// turn. A line of "-" means the turn produced no tool output.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive a plan with scripted tool outputs",
	Long: `Activates the given plan and feeds it one tool output per line, from a
script file or stdin, printing the traversal status after each turn.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSimulate(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().String("plan", "", "Plan ID to activate")
	simulateCmd.Flags().String("script", "", "File with one tool output per line (default: stdin)")
	_ = simulateCmd.MarkFlagRequired("plan")
}

func runSimulate(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("library")
	planID, _ := cmd.Flags().GetString("plan")
	script, _ := cmd.Flags().GetString("script")

	lib, err := library.Load(path)
	if err != nil {
		return err
	}
	plan, ok := lib.Get(planID)
	if !ok {
		return fmt.Errorf("plan %s not found in %s", planID, path)
	}

	var input io.Reader = os.Stdin
	if script != "" {
		f, err := os.Open(script)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	p := termenv.ColorProfile()
	heading := func(s string) string {
		return termenv.String(s).Foreground(p.Color("#818cf8")).Bold().String()
	}
	status := func(s runtime.Status) string {
		color := "#34d399"
		if s == runtime.StatusEscalated || s == runtime.StatusExpired || s == runtime.StatusAbandoned {
			color = "#fb7185"
		}
		return termenv.String(string(s)).Foreground(p.Color(color)).String()
	}

	eng := runtime.NewEngine(lib, runtime.WithLogger(newLogger(cmd)))
	ctx := cmd.Context()

	res := eng.Activate(ctx, plan)
	fmt.Println(heading(fmt.Sprintf("== activated %s ==", plan.Title())))
	fmt.Println(res.Context)

	scanner := bufio.NewScanner(input)
	turn := 0
	for !res.Status.Terminal() && scanner.Scan() {
		turn++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		in := runtime.TurnInput{ToolOutput: line, HasOutput: line != "-"}

		res = eng.Advance(ctx, res.State, in)
		fmt.Println(heading(fmt.Sprintf("== turn %d (%s) ==", turn, status(res.Status))))
		if res.Context != "" {
			fmt.Println(res.Context)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Println(heading(fmt.Sprintf("== final: %s ==", status(res.Status))))
	if res.State != nil {
		fmt.Printf("completed %d/%d nodes over %d events\n",
			res.State.CompletedNodes, res.State.TotalNodes, len(res.State.Events))
	}
	return nil
}
